package policy

// #region imports
import (
	"sort"

	"github.com/danielpatrickdp/task-policy/go-engine/internal/feature"
)

// #endregion

// #region table

// Table is the two-level value store: state → action → learned value, with a
// visit counter per (state, action) pair. Misses read as 0.0 value and 0
// visits without mutating the table; entries are created lazily on first
// Update and never removed except by Reset.
//
// Table itself is not goroutine-safe. The engine serializes all writes and
// guards reads with its own lock.
type Table struct {
	states map[feature.StateKey]*stateEntry
}

// stateEntry keeps the per-state value and visit maps alongside an explicit
// insertion-order slice. The slice is what makes argmax tie-breaks
// deterministic: first-inserted wins.
type stateEntry struct {
	order  []Action
	values map[Action]float64
	visits map[Action]int
}

// NewTable returns an empty value store.
func NewTable() *Table {
	return &Table{states: make(map[feature.StateKey]*stateEntry)}
}

// #endregion

// #region reads

// Known reports whether the state has any learned entries.
func (t *Table) Known(state feature.StateKey) bool {
	_, ok := t.states[state]
	return ok
}

// Value returns the learned value for (state, action), 0.0 on miss.
func (t *Table) Value(state feature.StateKey, action Action) float64 {
	if e, ok := t.states[state]; ok {
		return e.values[action]
	}
	return 0
}

// Visits returns the visit count for (state, action), 0 on miss.
func (t *Table) Visits(state feature.StateKey, action Action) int {
	if e, ok := t.states[state]; ok {
		return e.visits[action]
	}
	return 0
}

// Values returns a copy of the action→value mapping for a state. Unseen
// states yield an empty (non-nil) map.
func (t *Table) Values(state feature.StateKey) map[Action]float64 {
	out := make(map[Action]float64)
	if e, ok := t.states[state]; ok {
		for a, v := range e.values {
			out[a] = v
		}
	}
	return out
}

// OrderedValues returns the state's entries in first-insertion order, or nil
// for an unseen state.
func (t *Table) OrderedValues(state feature.StateKey) []ActionValue {
	e, ok := t.states[state]
	if !ok {
		return nil
	}
	out := make([]ActionValue, len(e.order))
	for i, a := range e.order {
		out[i] = ActionValue{Action: a, Value: e.values[a]}
	}
	return out
}

// Best returns the argmax-by-value action for a state. Ties resolve to the
// first-inserted action. ok is false for unseen or empty states.
func (t *Table) Best(state feature.StateKey) (ActionValue, bool) {
	entries := t.OrderedValues(state)
	if len(entries) == 0 {
		return ActionValue{}, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Value > best.Value { // strict: first-inserted keeps ties
			best = e
		}
	}
	return best, true
}

// StateCount returns the number of states with at least one entry.
func (t *Table) StateCount() int {
	return len(t.states)
}

// Size returns the total number of (state, action) entries.
func (t *Table) Size() int {
	n := 0
	for _, e := range t.states {
		n += len(e.order)
	}
	return n
}

// #endregion

// #region update

// Update applies the episodic temporal-difference rule
//
//	v ← v + alpha*(reward - v)
//
// creating the (state, action) entry lazily at 0.0, and increments its visit
// count. There is no next-state term: each decision is a complete episode,
// so the rule reduces to an exponential moving average toward the reward.
// alpha must already be validated to (0, 1] by the caller's configuration.
// Returns the new value.
func (t *Table) Update(state feature.StateKey, action Action, reward, alpha float64) float64 {
	e, ok := t.states[state]
	if !ok {
		e = &stateEntry{
			values: make(map[Action]float64),
			visits: make(map[Action]int),
		}
		t.states[state] = e
	}
	if _, seen := e.values[action]; !seen {
		e.order = append(e.order, action)
		e.values[action] = 0
	}

	v := e.values[action] + alpha*(reward-e.values[action])
	e.values[action] = v
	e.visits[action]++
	return v
}

// Reset discards every entry. This is the only way entries are ever removed.
func (t *Table) Reset() {
	t.states = make(map[feature.StateKey]*stateEntry)
}

// #endregion

// #region snapshot

// Export flattens the table into persistence rows, states sorted and actions
// in insertion order, so the output is deterministic for a given table.
func (t *Table) Export() []Entry {
	states := make([]feature.StateKey, 0, len(t.states))
	for s := range t.states {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })

	var rows []Entry
	for _, s := range states {
		e := t.states[s]
		for ord, a := range e.order {
			rows = append(rows, Entry{
				State:  s,
				Action: a,
				Value:  e.values[a],
				Visits: e.visits[a],
				Ord:    ord,
			})
		}
	}
	return rows
}

// Restore rebuilds a table from persistence rows, honoring each row's Ord so
// tie-break order survives a round trip.
func Restore(rows []Entry) *Table {
	byState := make(map[feature.StateKey][]Entry)
	for _, r := range rows {
		byState[r.State] = append(byState[r.State], r)
	}

	t := NewTable()
	for state, group := range byState {
		sort.Slice(group, func(i, j int) bool { return group[i].Ord < group[j].Ord })
		e := &stateEntry{
			values: make(map[Action]float64),
			visits: make(map[Action]int),
		}
		for _, r := range group {
			e.order = append(e.order, r.Action)
			e.values[r.Action] = r.Value
			e.visits[r.Action] = r.Visits
		}
		t.states[state] = e
	}
	return t
}

// #endregion
