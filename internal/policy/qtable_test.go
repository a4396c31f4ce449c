package policy

import (
	"math"
	"testing"

	"github.com/danielpatrickdp/task-policy/go-engine/internal/feature"
)

const testState = feature.StateKey("calendar|medium|morning")

func TestDefaultOnMiss(t *testing.T) {
	table := NewTable()

	if table.Known(testState) {
		t.Error("fresh table should know no states")
	}
	if v := table.Value(testState, ActionSendEmail); v != 0 {
		t.Errorf("unseen value = %f, want 0", v)
	}
	if n := table.Visits(testState, ActionSendEmail); n != 0 {
		t.Errorf("unseen visits = %d, want 0", n)
	}
	vals := table.Values(testState)
	if vals == nil || len(vals) != 0 {
		t.Errorf("unseen Values = %v, want empty map", vals)
	}
	// Reads must not vivify entries
	if table.StateCount() != 0 || table.Size() != 0 {
		t.Error("reads mutated the table")
	}
}

func TestUpdateConvergence(t *testing.T) {
	table := NewTable()
	const (
		alpha  = 0.1
		reward = 0.6
		n      = 25
	)

	var v float64
	for i := 1; i <= n; i++ {
		v = table.Update(testState, ActionCalendarEvent, reward, alpha)
		// Closed form: |v_n - r| = |v_0 - r| * (1-alpha)^n with v_0 = 0
		want := reward * math.Pow(1-alpha, float64(i))
		if got := math.Abs(v - reward); math.Abs(got-want) > 1e-12 {
			t.Fatalf("after %d updates: |v-r| = %g, want %g", i, got, want)
		}
	}
	if v >= reward {
		t.Errorf("value %f overshot reward %f", v, reward)
	}
	if table.Visits(testState, ActionCalendarEvent) != n {
		t.Errorf("visits = %d, want %d", table.Visits(testState, ActionCalendarEvent), n)
	}
}

func TestUpdateFirstStep(t *testing.T) {
	table := NewTable()
	v := table.Update(testState, ActionCalendarEvent, 0.6, 0.1)
	if math.Abs(v-0.06) > 1e-12 {
		t.Errorf("first update = %f, want 0.06", v)
	}
}

func TestBestTieBreakInsertionOrder(t *testing.T) {
	table := NewTable()
	// Insert web_search first, then calendar_event, both reaching the same value
	table.Update(testState, ActionWebSearch, 0.5, 1.0)
	table.Update(testState, ActionCalendarEvent, 0.5, 1.0)

	best, ok := table.Best(testState)
	if !ok {
		t.Fatal("expected a best action")
	}
	if best.Action != ActionWebSearch {
		t.Errorf("tie-break picked %s, want first-inserted %s", best.Action, ActionWebSearch)
	}

	// A strictly higher value still wins regardless of order
	table.Update(testState, ActionCalendarEvent, 1.0, 1.0)
	best, _ = table.Best(testState)
	if best.Action != ActionCalendarEvent {
		t.Errorf("argmax picked %s, want %s", best.Action, ActionCalendarEvent)
	}
}

func TestOrderedValuesPreservesInsertion(t *testing.T) {
	table := NewTable()
	inserted := []Action{ActionRAGQuery, ActionSendEmail, ActionLaunchApp}
	for i, a := range inserted {
		table.Update(testState, a, float64(i)*0.1, 0.5)
	}

	got := table.OrderedValues(testState)
	if len(got) != len(inserted) {
		t.Fatalf("got %d entries, want %d", len(got), len(inserted))
	}
	for i, av := range got {
		if av.Action != inserted[i] {
			t.Errorf("position %d: got %s, want %s", i, av.Action, inserted[i])
		}
	}
}

func TestExportRestoreRoundTrip(t *testing.T) {
	table := NewTable()
	states := []feature.StateKey{"email|long|night", "app|morning|short", "afternoon|search|short"}
	for i, s := range states {
		table.Update(s, ActionSendEmail, 0.3+float64(i)*0.1, 0.2)
		table.Update(s, ActionWebSearch, -0.2, 0.2)
		table.Update(s, ActionSendEmail, 0.5, 0.2)
	}

	restored := Restore(table.Export())

	if restored.StateCount() != table.StateCount() || restored.Size() != table.Size() {
		t.Fatalf("restored shape %d/%d, want %d/%d",
			restored.StateCount(), restored.Size(), table.StateCount(), table.Size())
	}
	for _, s := range states {
		want := table.OrderedValues(s)
		got := restored.OrderedValues(s)
		if len(got) != len(want) {
			t.Fatalf("state %q: %d entries, want %d", s, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("state %q position %d: got %+v, want %+v", s, i, got[i], want[i])
			}
		}
		for _, av := range want {
			if restored.Visits(s, av.Action) != table.Visits(s, av.Action) {
				t.Errorf("state %q action %s: visit count mismatch", s, av.Action)
			}
		}
	}
}

func TestReset(t *testing.T) {
	table := NewTable()
	table.Update(testState, ActionSendEmail, 0.5, 0.1)
	table.Reset()
	if table.StateCount() != 0 || table.Size() != 0 {
		t.Error("reset left entries behind")
	}
}

func TestActionsEnumeration(t *testing.T) {
	actions := Actions()
	if len(actions) != 8 {
		t.Fatalf("expected 8 actions, got %d", len(actions))
	}
	for _, a := range actions {
		if !Valid(a) {
			t.Errorf("action %s not valid against its own enumeration", a)
		}
	}
	if Valid(Action("make_coffee")) {
		t.Error("unknown action reported valid")
	}
}
