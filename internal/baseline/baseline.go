package baseline

// #region imports
import (
	"strings"

	"github.com/danielpatrickdp/task-policy/go-engine/internal/policy"
)

// #endregion

// #region keywords

var calendarListPhrases = []string{
	"show my schedule", "what's on my calendar", "list my upcoming",
	"my appointments", "show me my meetings", "display calendar",
	"check my appointments",
}

var calendarEventKeywords = []string{
	"schedule", "remind me", "set a reminder", "appointment",
	"book meeting", "book a meeting", "plan ", "arrange ",
}

var emailKeywords = []string{
	"email", "mail", "compose",
}

var webSearchKeywords = []string{
	"search for", "google", "look up", "find ",
}

var ragPrefixes = []string{
	"what is", "tell me about", "define", "explain", "kb search",
}

var launchKeywords = []string{
	"open ", "launch ", "run ", "start ",
}

var fileKeywords = []string{
	"file", "folder", "rename", "move ", "copy ", "delete ",
}

var workflowKeywords = []string{
	"workflow", "automate", "trigger",
}

// #endregion

// #region classify

// Classify maps a command to an intent with a heuristic confidence. No model
// call — this is the thin static collaborator the adaptive layer refines.
// Rules run in precedence order; "schedule a mail reminder" is a calendar
// event, not an email.
func Classify(command string) (policy.Action, float64) {
	lower := strings.ToLower(strings.TrimSpace(command))
	if lower == "" {
		return policy.ActionWebSearch, 0.1
	}

	for _, p := range calendarListPhrases {
		if strings.Contains(lower, p) {
			return policy.ActionCalendarList, 0.85
		}
	}
	for _, kw := range calendarEventKeywords {
		if strings.Contains(lower, kw) {
			return policy.ActionCalendarEvent, 0.75
		}
	}
	for _, kw := range emailKeywords {
		if strings.Contains(lower, kw) {
			return policy.ActionSendEmail, 0.8
		}
	}
	for _, p := range ragPrefixes {
		if strings.HasPrefix(lower, p) {
			return policy.ActionRAGQuery, 0.6
		}
	}
	for _, kw := range webSearchKeywords {
		if strings.Contains(lower, kw) {
			return policy.ActionWebSearch, 0.7
		}
	}
	for _, kw := range launchKeywords {
		if strings.HasPrefix(lower, kw) {
			return policy.ActionLaunchApp, 0.7
		}
	}
	for _, kw := range fileKeywords {
		if strings.Contains(lower, kw) {
			return policy.ActionFileManage, 0.65
		}
	}
	for _, kw := range workflowKeywords {
		if strings.Contains(lower, kw) {
			return policy.ActionWorkflowTrigger, 0.7
		}
	}

	// Nothing matched: weak web-search guess, leaving room for the learned
	// policy to take over once values exist for the state.
	return policy.ActionWebSearch, 0.25
}

// #endregion
