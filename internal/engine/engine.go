package engine

// #region imports
import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/danielpatrickdp/task-policy/go-engine/internal/arbiter"
	"github.com/danielpatrickdp/task-policy/go-engine/internal/config"
	"github.com/danielpatrickdp/task-policy/go-engine/internal/feature"
	"github.com/danielpatrickdp/task-policy/go-engine/internal/ledger"
	"github.com/danielpatrickdp/task-policy/go-engine/internal/policy"
	"github.com/danielpatrickdp/task-policy/go-engine/internal/reward"
	"github.com/danielpatrickdp/task-policy/go-engine/internal/store"
)

// #endregion

// #region engine-struct

// Engine is the adaptive policy-learning core: it arbitrates intent
// decisions against a caller-supplied base prediction, records interactions,
// applies feedback through the reward model and Q-table update rule, and
// persists learned state.
//
// Locking: decisions and metric reads take the read lock; every mutation
// (feedback, recording, decay, save, load) takes the write lock, so feedback
// events never race each other and snapshots are never torn.
type Engine struct {
	cfg   config.Config
	store *store.Store // nil = in-memory only

	mu      sync.RWMutex
	table   *policy.Table
	ring    *ledger.Ledger
	arb     *arbiter.Arbiter
	history map[policy.Action][]bool
	prefs   map[string]map[policy.Action][]int
	epsilon float64

	now func() time.Time
}

// #endregion

// #region constructor

// New creates an engine with validated configuration. st may be nil for a
// purely in-memory engine (tests, dry runs); Load and Save become no-ops.
func New(cfg config.Config, st *store.Store) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	return &Engine{
		cfg:     cfg,
		store:   st,
		table:   policy.NewTable(),
		ring:    ledger.New(cfg.LedgerCapacity),
		arb:     arbiter.New(policy.Actions(), rand.New(rand.NewSource(time.Now().UnixNano()))),
		history: make(map[policy.Action][]bool),
		prefs:   make(map[string]map[policy.Action][]int),
		epsilon: cfg.Epsilon,
		now:     time.Now,
	}, nil
}

// Open creates an engine backed by the store at cfg.DBPath and restores the
// latest snapshot. An unopenable or corrupt database file is logged as a
// warning and the engine degrades to in-memory-only operation; decisions and
// feedback stay available, only durability is lost.
func Open(cfg config.Config) (*Engine, error) {
	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		log.Printf("[ENGINE] store unavailable, continuing in memory: %v", err)
		st = nil
	}
	e, err := New(cfg, st)
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, err
	}
	e.Load()
	return e, nil
}

// #endregion

// #region decide

// Decide arbitrates one command against the caller's base classifier
// prediction and returns the final intent. It never mutates learned state;
// only feedback does.
func (e *Engine) Decide(command string, fctx feature.Context, baseIntent policy.Action, baseConfidence float64) Decision {
	e.mu.RLock()
	defer e.mu.RUnlock()

	state := feature.Derive(command, fctx, e.now())
	entries := e.table.OrderedValues(state)

	d := e.arb.Decide(
		arbiter.Prediction{Intent: baseIntent, Confidence: baseConfidence},
		entries,
		e.epsilon,
	)

	log.Printf("[ENGINE] decide: state=%q base=%s(%.2f) candidate=%s(%.2f) final=%s(%.2f) source=%s",
		state, baseIntent, baseConfidence,
		d.Candidate.Intent, d.Candidate.Confidence,
		d.Final.Intent, d.Final.Confidence, d.Source)

	return Decision{
		Intent:     d.Final.Intent,
		Confidence: d.Final.Confidence,
		State:      state,
		Source:     d.Source,
	}
}

// #endregion

// #region record-decision

// RecordDecision logs an issued decision into the recency ring and the
// durable interaction log, returning the interaction ID feedback can later
// reference. A durable-log failure is logged and does not block the ring.
func (e *Engine) RecordDecision(command string, fctx feature.Context, intent policy.Action, result, userID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	state := feature.Derive(command, fctx, now)
	rec := e.ring.Record(command, intent, result, userID, state, now)

	if e.store != nil {
		if err := e.store.AppendInteraction(rec); err != nil {
			log.Printf("[ENGINE] interaction log failed: %v", err)
		}
	}
	return rec.ID
}

// #endregion

// #region submit-feedback

// SubmitFeedback resolves a 1-5 rating to the most recent unresolved
// interaction matching the command text or interaction ID and applies the
// full learning step: reward, Q-update, success history, user preferences,
// audit row. Rejections (ErrInvalidRating, ErrNotFound) mutate nothing.
func (e *Engine) SubmitFeedback(commandOrID string, rating int, userID string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rec := e.ring.Resolve(commandOrID)
	if rec == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, commandOrID)
	}

	// Reward reads the pre-update history and pre-increment visit count.
	r := reward.Compute(reward.Input{
		Rating:    rating,
		Successes: e.history[rec.Intent],
		Visits:    e.table.Visits(rec.State, rec.Intent),
	})

	rec.ApplyFeedback(rating)
	newValue := e.table.Update(rec.State, rec.Intent, r, e.cfg.LearningRate)
	e.history[rec.Intent] = append(e.history[rec.Intent], rec.Success)
	if e.prefs[userID] == nil {
		e.prefs[userID] = make(map[policy.Action][]int)
	}
	e.prefs[userID][rec.Intent] = append(e.prefs[userID][rec.Intent], rating)

	if e.store != nil {
		err := e.store.AppendFeedback(store.FeedbackEntry{
			InteractionID: rec.ID,
			Command:       rec.Command,
			Intent:        rec.Intent,
			Rating:        rating,
			UserID:        userID,
			State:         rec.State,
			CreatedAt:     e.now().UTC(),
		})
		if err != nil {
			log.Printf("[ENGINE] feedback log failed: %v", err)
		}
	}

	log.Printf("[ENGINE] feedback: rating=%d/5 intent=%s state=%q reward=%.3f q=%.3f",
		rating, rec.Intent, rec.State, r, newValue)
	return nil
}

// #endregion

// #region decay

// DecayExploration multiplies epsilon by decayRate, floored at minEpsilon.
func (e *Engine) DecayExploration(decayRate, minEpsilon float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.epsilon *= decayRate
	if e.epsilon < minEpsilon {
		e.epsilon = minEpsilon
	}
	log.Printf("[ENGINE] exploration rate decayed to %.4f", e.epsilon)
}

// #endregion

// #region metrics

// Metrics reports the engine's learning statistics.
func (e *Engine) Metrics() Metrics {
	e.mu.RLock()
	defer e.mu.RUnlock()

	m := Metrics{
		TotalStates:       e.table.StateCount(),
		TotalInteractions: e.ring.Len(),
		QTableSize:        e.table.Size(),
		LearningRate:      e.cfg.LearningRate,
		ExplorationRate:   e.epsilon,
		IntentPerformance: make(map[policy.Action]IntentMetrics),
	}

	for intent, outcomes := range e.history {
		if len(outcomes) == 0 {
			continue
		}
		m.IntentPerformance[intent] = IntentMetrics{
			SuccessRate:       successRate(outcomes),
			TotalAttempts:     len(outcomes),
			RecentSuccessRate: successRate(tail(outcomes, 10)),
		}
	}
	return m
}

// #endregion

// #region policy-snapshot

// PolicySnapshot is the read-only projection of the learned policy: per
// observed state, the best action plus up to two alternatives sorted by
// value descending. It is never a load source.
func (e *Engine) PolicySnapshot() []StatePolicy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() []StatePolicy {
	var out []StatePolicy
	for _, row := range e.table.Export() {
		if len(out) > 0 && out[len(out)-1].State == row.State {
			continue // Export groups rows by state; handle each state once
		}
		entries := e.table.OrderedValues(row.State)
		// Stable sort: ties keep insertion order
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Value > entries[j].Value })

		sp := StatePolicy{
			State:      row.State,
			BestAction: entries[0].Action,
			BestValue:  entries[0].Value,
		}
		if len(entries) > 1 {
			limit := 3
			if len(entries) < limit {
				limit = len(entries)
			}
			sp.Alternatives = entries[1:limit]
		}
		out = append(out, sp)
	}
	return out
}

// ExportPolicy writes the policy projection as indented JSON to the
// configured policy path.
func (e *Engine) ExportPolicy() error {
	e.mu.RLock()
	snap := e.snapshotLocked()
	e.mu.RUnlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal policies: %w", err)
	}
	if err := os.WriteFile(e.cfg.PolicyPath, data, 0o644); err != nil {
		return fmt.Errorf("write policies: %w", err)
	}
	return nil
}

// #endregion

// #region recommend

// Recommend returns the learned-preference view for a command and user:
// the best-valued intent for the derived state with its value rescaled from
// [-1,1] to a [0,1] confidence, up to two alternatives, and the user's
// preference factor (average rating above 3.5 rescaled the same way). When
// no state entries exist, a strong user preference supplies the primary.
func (e *Engine) Recommend(command string, fctx feature.Context, userID string) Recommendation {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rec := Recommendation{ExplorationFactor: e.epsilon}

	state := feature.Derive(command, fctx, e.now())
	entries := e.table.OrderedValues(state)
	if len(entries) > 0 {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Value > entries[j].Value })
		rec.PrimaryIntent = entries[0].Action
		rec.Confidence = clamp01((entries[0].Value + 1) / 2)
		limit := 3
		if len(entries) < limit {
			limit = len(entries)
		}
		for _, av := range entries[1:limit] {
			rec.Alternatives = append(rec.Alternatives, av.Action)
		}
	}

	var bestIntent policy.Action
	var bestFactor float64
	for _, intent := range policy.Actions() {
		ratings := e.prefs[userID][intent]
		if len(ratings) == 0 {
			continue
		}
		if avg := meanInt(ratings); avg > 3.5 {
			if factor := (avg - 3) / 2; factor > bestFactor {
				bestFactor = factor
				bestIntent = intent
			}
		}
	}
	if bestFactor > 0 {
		rec.PreferenceFactor = bestFactor
		if rec.PrimaryIntent == "" {
			rec.PrimaryIntent = bestIntent
			rec.Confidence = bestFactor
		}
	}
	return rec
}

// #endregion

// #region persistence

// Save writes the full model snapshot through the store. Correctness never
// depends on save frequency: a crash before a save loses updates since the
// last one, never corrupts state.
func (e *Engine) Save() error {
	if e.store == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.store.SaveModel(store.ModelSnapshot{
		Entries:      e.table.Export(),
		History:      e.history,
		Preferences:  e.prefs,
		LearningRate: e.cfg.LearningRate,
		Epsilon:      e.epsilon,
	})
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Load restores learned state from the store's snapshot. A missing snapshot
// is a no-op; a corrupt one is logged as a warning and the engine continues
// with empty structures rather than failing.
func (e *Engine) Load() {
	if e.store == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	snap, ok, err := e.store.LoadModel()
	if err != nil {
		log.Printf("[ENGINE] load failed, starting with empty state: %v", err)
		return
	}
	if !ok {
		return
	}

	e.table = policy.Restore(snap.Entries)
	e.history = snap.History
	e.prefs = snap.Preferences
	e.epsilon = snap.Epsilon
	log.Printf("[ENGINE] model loaded: states=%d entries=%d epsilon=%.4f",
		e.table.StateCount(), e.table.Size(), e.epsilon)
}

// Close saves the model (best effort, failure logged) and closes the store.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	if err := e.Save(); err != nil {
		log.Printf("[ENGINE] save on close failed: %v", err)
	}
	return e.store.Close()
}

// #endregion

// #region helpers

func successRate(outcomes []bool) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	hits := 0
	for _, ok := range outcomes {
		if ok {
			hits++
		}
	}
	return float64(hits) / float64(len(outcomes))
}

func tail(outcomes []bool, n int) []bool {
	if len(outcomes) <= n {
		return outcomes
	}
	return outcomes[len(outcomes)-n:]
}

func meanInt(vals []int) float64 {
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return float64(sum) / float64(len(vals))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion
