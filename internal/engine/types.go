package engine

// #region imports
import (
	"errors"

	"github.com/danielpatrickdp/task-policy/go-engine/internal/arbiter"
	"github.com/danielpatrickdp/task-policy/go-engine/internal/feature"
	"github.com/danielpatrickdp/task-policy/go-engine/internal/policy"
)

// #endregion

// #region errors

var (
	// ErrInvalidRating is returned when a feedback rating falls outside 1-5.
	// No state is mutated.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrNotFound is returned when feedback matches no recent interaction.
	// No state is mutated.
	ErrNotFound = errors.New("no matching interaction")
)

// #endregion

// #region decision

// Decision is the engine's answer to a Decide call.
type Decision struct {
	Intent     policy.Action
	Confidence float64
	State      feature.StateKey
	Source     arbiter.Source
}

// #endregion

// #region metrics

// IntentMetrics summarizes the outcome history for one intent.
type IntentMetrics struct {
	SuccessRate       float64 `json:"success_rate"`
	TotalAttempts     int     `json:"total_attempts"`
	RecentSuccessRate float64 `json:"recent_success_rate"`
}

// Metrics is the engine's performance summary.
type Metrics struct {
	TotalStates       int                             `json:"total_states"`
	TotalInteractions int                             `json:"total_interactions"`
	QTableSize        int                             `json:"q_table_size"`
	LearningRate      float64                         `json:"learning_rate"`
	ExplorationRate   float64                         `json:"exploration_rate"`
	IntentPerformance map[policy.Action]IntentMetrics `json:"intent_performance"`
}

// #endregion

// #region policy-snapshot

// StatePolicy is one row of the exported policy projection: the best action
// for a state plus up to two alternatives, sorted by value descending.
type StatePolicy struct {
	State        feature.StateKey     `json:"state"`
	BestAction   policy.Action        `json:"best_action"`
	BestValue    float64              `json:"q_value"`
	Alternatives []policy.ActionValue `json:"alternatives,omitempty"`
}

// #endregion

// #region recommendation

// Recommendation is the learned-preference view for a (command, user) pair,
// independent of any base classifier input.
type Recommendation struct {
	PrimaryIntent     policy.Action   `json:"primary_intent,omitempty"`
	Confidence        float64         `json:"confidence"`
	Alternatives      []policy.Action `json:"alternative_intents,omitempty"`
	PreferenceFactor  float64         `json:"user_preference_factor"`
	ExplorationFactor float64         `json:"exploration_factor"`
}

// #endregion
