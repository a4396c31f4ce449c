package feature

// #region imports
import (
	"sort"
	"strings"
	"time"
)

// #endregion

// #region state-key

// StateKey is a deterministic, bucketed abstraction of a command used to
// index learned values. Two commands producing the same tag set always map
// to the same key regardless of original wording.
type StateKey string

// #endregion

// #region context

// Context carries the optional extraction flags known at decision time.
type Context struct {
	HasDatetime   bool
	HasRecipients bool
}

// #endregion

// #region topic-rules

type topicRule struct {
	tag      string
	keywords []string
}

// topicRules are scanned in order; the first matching category wins and the
// categories are mutually exclusive. A command matching none yields no topic
// tag at all, not an "unknown" tag.
var topicRules = []topicRule{
	{"calendar", []string{"schedule", "meeting", "event"}},
	{"email", []string{"email", "send", "mail"}},
	{"search", []string{"search", "find", "google"}},
	{"app", []string{"open", "run", "launch"}},
}

// #endregion

// #region derive

// Derive builds the state key for a command. It is a pure function of
// (command, ctx, now): identical inputs always produce a byte-identical key.
// Tags are sorted lexicographically and joined with "|", so tag insertion
// order never leaks into the key.
func Derive(command string, ctx Context, now time.Time) StateKey {
	tags := []string{
		lengthTag(command),
		timeOfDayTag(now.Hour()),
	}

	if tag, ok := topicTag(command); ok {
		tags = append(tags, tag)
	}

	if ctx.HasDatetime {
		tags = append(tags, "time_specific")
	}
	if ctx.HasRecipients {
		tags = append(tags, "multi_user")
	}

	sort.Strings(tags)
	return StateKey(strings.Join(tags, "|"))
}

// #endregion

// #region buckets

// lengthTag buckets the command by word count. An empty command counts as
// zero words and lands in "short".
func lengthTag(command string) string {
	n := len(strings.Fields(command))
	switch {
	case n <= 3:
		return "short"
	case n <= 7:
		return "medium"
	default:
		return "long"
	}
}

// timeOfDayTag buckets the hour into half-open intervals, lower bound
// inclusive: morning [6,12), afternoon [12,18), evening [18,22), night
// otherwise.
func timeOfDayTag(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 18:
		return "afternoon"
	case hour >= 18 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

// topicTag returns the first matching topic category for the command.
func topicTag(command string) (string, bool) {
	lower := strings.ToLower(command)
	for _, rule := range topicRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.tag, true
			}
		}
	}
	return "", false
}

// #endregion
