package ledger

// #region imports
import (
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/task-policy/go-engine/internal/feature"
	"github.com/danielpatrickdp/task-policy/go-engine/internal/policy"
)

// #endregion

// #region interaction

// Interaction is one issued intent decision awaiting feedback. The ledger
// exclusively owns these records; the feedback fields are write-once and set
// only through ApplyFeedback.
type Interaction struct {
	ID        string
	Timestamp time.Time
	Command   string
	Intent    policy.Action
	Result    string
	UserID    string
	State     feature.StateKey

	HasFeedback bool
	Success     bool
	Rating      int
}

// ApplyFeedback marks the interaction's outcome from a 1-5 rating. A rating
// of 3 or higher counts as success. Returns false if feedback was already
// applied; outcome fields never change after the first write.
func (in *Interaction) ApplyFeedback(rating int) bool {
	if in.HasFeedback {
		return false
	}
	in.HasFeedback = true
	in.Rating = rating
	in.Success = rating >= 3
	return true
}

// #endregion

// #region ledger

// Ledger is a fixed-capacity ring of recent interactions. Once full, the
// oldest record is evicted to make room; the durable interaction log kept by
// the store retains the full history for replay and audit.
type Ledger struct {
	buf   []*Interaction
	head  int // index of the oldest record
	count int
}

// New creates a ledger holding up to capacity records. Capacity below 1 is
// treated as 1.
func New(capacity int) *Ledger {
	if capacity < 1 {
		capacity = 1
	}
	return &Ledger{buf: make([]*Interaction, capacity)}
}

// Len returns the number of records currently held.
func (l *Ledger) Len() int {
	return l.count
}

// #endregion

// #region record

// Record appends a new interaction, evicting the oldest if the ring is full,
// and returns the created record.
func (l *Ledger) Record(command string, intent policy.Action, result, userID string, state feature.StateKey, now time.Time) *Interaction {
	rec := &Interaction{
		ID:        uuid.New().String(),
		Timestamp: now,
		Command:   command,
		Intent:    intent,
		Result:    result,
		UserID:    userID,
		State:     state,
	}

	if l.count < len(l.buf) {
		l.buf[(l.head+l.count)%len(l.buf)] = rec
		l.count++
	} else {
		// Full: overwrite the oldest slot and advance the head
		l.buf[l.head] = rec
		l.head = (l.head + 1) % len(l.buf)
	}
	return rec
}

// #endregion

// #region resolve

// Resolve finds the interaction a piece of feedback belongs to, scanning
// from most recent to oldest and returning the first record whose ID or
// exact command text matches. Records that already carry feedback are
// skipped, keeping the outcome fields write-once; if the same command was
// issued twice, feedback therefore attaches to the newest unresolved
// occurrence. Returns nil when nothing matches.
func (l *Ledger) Resolve(commandOrID string) *Interaction {
	for i := l.count - 1; i >= 0; i-- {
		rec := l.buf[(l.head+i)%len(l.buf)]
		if rec.HasFeedback {
			continue
		}
		if rec.ID == commandOrID || rec.Command == commandOrID {
			return rec
		}
	}
	return nil
}

// #endregion

// #region recent

// Recent returns up to n records, newest first.
func (l *Ledger) Recent(n int) []*Interaction {
	if n > l.count {
		n = l.count
	}
	out := make([]*Interaction, 0, n)
	for i := l.count - 1; i >= l.count-n; i-- {
		out = append(out, l.buf[(l.head+i)%len(l.buf)])
	}
	return out
}

// #endregion
