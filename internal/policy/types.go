package policy

import "github.com/danielpatrickdp/task-policy/go-engine/internal/feature"

// #region action

// Action is one of the fixed intent labels the engine can route a command
// to. The enumeration is closed; actions are never created dynamically.
type Action string

const (
	ActionCalendarEvent   Action = "calendar_event"
	ActionSendEmail       Action = "send_email"
	ActionWebSearch       Action = "web_search"
	ActionLaunchApp       Action = "launch_app"
	ActionRAGQuery        Action = "rag_query"
	ActionFileManage      Action = "file_manage"
	ActionCalendarList    Action = "calendar_list"
	ActionWorkflowTrigger Action = "workflow_trigger"
)

// Actions returns the full intent enumeration in canonical order.
func Actions() []Action {
	return []Action{
		ActionCalendarEvent,
		ActionSendEmail,
		ActionWebSearch,
		ActionLaunchApp,
		ActionRAGQuery,
		ActionFileManage,
		ActionCalendarList,
		ActionWorkflowTrigger,
	}
}

// Valid reports whether a is part of the closed enumeration.
func Valid(a Action) bool {
	for _, known := range Actions() {
		if a == known {
			return true
		}
	}
	return false
}

// #endregion

// #region action-value

// ActionValue pairs an action with its learned value. Slices of ActionValue
// returned by the table preserve per-state first-insertion order, which is
// the documented tie-break for argmax selection.
type ActionValue struct {
	Action Action
	Value  float64
}

// #endregion

// #region entry

// Entry is a flattened (state, action) row used for persistence. Ord records
// the action's insertion position within its state so a restored table
// reproduces the original tie-break order.
type Entry struct {
	State  feature.StateKey
	Action Action
	Value  float64
	Visits int
	Ord    int
}

// #endregion
