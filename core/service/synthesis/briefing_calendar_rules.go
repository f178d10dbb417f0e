package synthesis

import (
	"strings"

	"briefing_worker/core/domain"
)

// Calendar keyword classes. An event's summary is matched
// case-insensitively against each class in order; the first match
// decides the task priority. Unmatched events produce no task.
var (
	cancellationKeywords = []string{"cancelled", "canceled", "cancellation"}
	appointmentKeywords  = []string{"appointment", "pickup", "pick up", "dentist", "doctor"}
	socialKeywords       = []string{"dinner", "lunch", "party", "birthday"}
)

// classifyEvent returns the task priority for an event and whether a
// task should be created at all. Recurring events are skipped unless a
// cancellation keyword overrides the skip.
func classifyEvent(e *domain.CalendarEvent) (priority int, ok bool) {
	summary := strings.ToLower(e.Summary)

	cancelled := containsAny(summary, cancellationKeywords)
	if e.IsRecurring && !cancelled {
		return 0, false
	}

	switch {
	case cancelled:
		return domain.TaskPriorityUrgent, true
	case containsAny(summary, appointmentKeywords):
		return domain.TaskPriorityUrgent, true
	case containsAny(summary, socialKeywords):
		return domain.TaskPriorityHigh, true
	}
	return 0, false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
