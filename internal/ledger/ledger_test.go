package ledger

import (
	"testing"
	"time"

	"github.com/danielpatrickdp/task-policy/go-engine/internal/policy"
)

var t0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func TestRecordAndResolveByID(t *testing.T) {
	l := New(10)
	rec := l.Record("open spotify", policy.ActionLaunchApp, "launched", "u1", "app|morning|short", t0)

	if rec.ID == "" {
		t.Fatal("expected a generated interaction ID")
	}
	if got := l.Resolve(rec.ID); got != rec {
		t.Errorf("Resolve by ID returned %v, want the recorded interaction", got)
	}
}

func TestResolveByCommandMostRecentWins(t *testing.T) {
	l := New(10)
	l.Record("play music", policy.ActionLaunchApp, "", "u1", "app|morning|short", t0)
	second := l.Record("play music", policy.ActionWebSearch, "", "u1", "app|morning|short", t0.Add(time.Minute))

	got := l.Resolve("play music")
	if got != second {
		t.Errorf("Resolve matched intent %s, want the most recent occurrence (%s)",
			got.Intent, second.Intent)
	}
}

func TestResolveSkipsResolvedRecords(t *testing.T) {
	l := New(10)
	first := l.Record("play music", policy.ActionLaunchApp, "", "u1", "app|morning|short", t0)
	second := l.Record("play music", policy.ActionWebSearch, "", "u1", "app|morning|short", t0.Add(time.Minute))

	if !second.ApplyFeedback(5) {
		t.Fatal("first feedback application should succeed")
	}
	if second.ApplyFeedback(1) {
		t.Error("feedback fields must be write-once")
	}
	if second.Rating != 5 || !second.Success {
		t.Errorf("outcome changed after second write attempt: %+v", second)
	}

	// The resolved record is skipped; the older unresolved one matches next.
	if got := l.Resolve("play music"); got != first {
		t.Errorf("expected the older unresolved record, got %v", got)
	}
}

func TestResolveNotFound(t *testing.T) {
	l := New(10)
	l.Record("open spotify", policy.ActionLaunchApp, "", "u1", "app|morning|short", t0)
	if got := l.Resolve("never issued"); got != nil {
		t.Errorf("expected nil for unknown command, got %v", got)
	}
}

func TestEvictionOldestFirst(t *testing.T) {
	l := New(2)
	l.Record("first", policy.ActionWebSearch, "", "u1", "s", t0)
	l.Record("second", policy.ActionWebSearch, "", "u1", "s", t0.Add(time.Second))
	l.Record("third", policy.ActionWebSearch, "", "u1", "s", t0.Add(2*time.Second))

	if l.Len() != 2 {
		t.Fatalf("len = %d, want capacity 2", l.Len())
	}
	if got := l.Resolve("first"); got != nil {
		t.Error("oldest record should have been evicted")
	}
	if l.Resolve("second") == nil || l.Resolve("third") == nil {
		t.Error("newer records should survive eviction")
	}
}

func TestSuccessThreshold(t *testing.T) {
	l := New(4)
	for rating, wantSuccess := range map[int]bool{2: false, 3: true} {
		rec := l.Record("cmd", policy.ActionSendEmail, "", "u1", "s", t0)
		rec.ApplyFeedback(rating)
		if rec.Success != wantSuccess {
			t.Errorf("rating %d: success = %v, want %v", rating, rec.Success, wantSuccess)
		}
	}
}

func TestRecentNewestFirst(t *testing.T) {
	l := New(3)
	l.Record("a", policy.ActionWebSearch, "", "u1", "s", t0)
	l.Record("b", policy.ActionWebSearch, "", "u1", "s", t0.Add(time.Second))
	l.Record("c", policy.ActionWebSearch, "", "u1", "s", t0.Add(2*time.Second))

	got := l.Recent(2)
	if len(got) != 2 || got[0].Command != "c" || got[1].Command != "b" {
		t.Errorf("Recent(2) order wrong: %v", got)
	}
}
