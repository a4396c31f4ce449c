package store

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/task-policy/go-engine/internal/feature"
	"github.com/danielpatrickdp/task-policy/go-engine/internal/policy"
)

// #endregion

// #region model-snapshot

// ModelSnapshot is the full durable image of learned state. Loading one
// reconstructs in-memory state such that subsequent updates are
// indistinguishable from an uninterrupted run.
type ModelSnapshot struct {
	Entries      []policy.Entry
	History      map[policy.Action][]bool
	Preferences  map[string]map[policy.Action][]int
	LearningRate float64
	Epsilon      float64
}

// #endregion

// #region feedback-entry

// FeedbackEntry is a single row in the feedback_log audit table.
type FeedbackEntry struct {
	InteractionID string
	Command       string
	Intent        policy.Action
	Rating        int
	UserID        string
	State         feature.StateKey
	CreatedAt     time.Time
}

// #endregion
