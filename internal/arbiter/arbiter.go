package arbiter

// #region imports
import (
	"math/rand"
	"sync"

	"github.com/danielpatrickdp/task-policy/go-engine/internal/policy"
)

// #endregion

// #region types

// Prediction is an (intent, confidence) pair from either the base classifier
// or the learned policy.
type Prediction struct {
	Intent     policy.Action
	Confidence float64
}

// Source identifies which path produced a prediction.
type Source string

const (
	SourceBase    Source = "base"
	SourceExplore Source = "rl_explore"
	SourceExploit Source = "rl_exploit"
)

// Decision is the arbitration outcome with its provenance for logging.
type Decision struct {
	Final     Prediction
	Candidate Prediction // the RL candidate that was considered
	Source    Source     // path that produced Final
}

// #endregion

// #region thresholds

const (
	exploreConfidence = 0.5
	exploitConfidence = 0.8

	// baseTrustThreshold: above this the base classifier always wins.
	baseTrustThreshold = 0.8
	// baseWeakThreshold / candidateStrongThreshold: the learned candidate
	// wins only when the base is below the former and the candidate above
	// the latter.
	baseWeakThreshold        = 0.3
	candidateStrongThreshold = 0.6
)

// #endregion

// #region arbiter

// Arbiter combines a base classifier prediction with the learned policy's
// recommendation using epsilon-greedy selection. Decisions never mutate the
// value store; the only internal state is the random source, guarded by a
// mutex so concurrent Decide calls stay safe.
type Arbiter struct {
	actions []policy.Action

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates an arbiter over the fixed action enumeration. rng is injected
// so the exploration branch is reproducible under test.
func New(actions []policy.Action, rng *rand.Rand) *Arbiter {
	return &Arbiter{actions: actions, rng: rng}
}

// #endregion

// #region decide

// Decide arbitrates one intent decision.
//
// entries are the learned values for the derived state in first-insertion
// order; ties on the maximal value resolve to the earliest-inserted action.
// With no entries the learned candidate degenerates to the base prediction.
// Otherwise an independent uniform draw below epsilon explores (random
// action, confidence 0.5) and exploits the argmax (confidence 0.8) the rest
// of the time.
//
// Final selection precedence: a base confidence above 0.8 short-circuits to
// the base prediction; a base below 0.3 defers to a candidate above 0.6;
// everything else falls back to the base prediction.
func (a *Arbiter) Decide(base Prediction, entries []policy.ActionValue, epsilon float64) Decision {
	candidate := base
	candidateSource := SourceBase

	if len(entries) > 0 {
		if a.draw() < epsilon {
			candidate = Prediction{
				Intent:     a.actions[a.pick(len(a.actions))],
				Confidence: exploreConfidence,
			}
			candidateSource = SourceExplore
		} else {
			best := entries[0]
			for _, e := range entries[1:] {
				if e.Value > best.Value { // strict: first-inserted keeps ties
					best = e
				}
			}
			candidate = Prediction{Intent: best.Action, Confidence: exploitConfidence}
			candidateSource = SourceExploit
		}
	}

	switch {
	case base.Confidence > baseTrustThreshold:
		return Decision{Final: base, Candidate: candidate, Source: SourceBase}
	case base.Confidence < baseWeakThreshold && candidate.Confidence > candidateStrongThreshold:
		return Decision{Final: candidate, Candidate: candidate, Source: candidateSource}
	default:
		return Decision{Final: base, Candidate: candidate, Source: SourceBase}
	}
}

// #endregion

// #region rng

func (a *Arbiter) draw() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.Float64()
}

func (a *Arbiter) pick(n int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.Intn(n)
}

// #endregion
