package domain

import "time"

// Task priorities follow the Todoist convention: 4 is urgent, 1 is default.
const (
	TaskPriorityUrgent = 4
	TaskPriorityHigh   = 3
	TaskPriorityMedium = 2
	TaskPriorityNormal = 1
)

// Labels applied to synthesized tasks. LabelGenerated marks every task
// this pipeline owns; reconciliation deletes by this label only.
const (
	LabelGenerated = "auto-generated"
	LabelCalendar  = "calendar"
)

// TaskIntent is a task the synthesizer wants to exist remotely.
type TaskIntent struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    int        `json:"priority"`
	Labels      []string   `json:"labels"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Source      string     `json:"source"` // "email" or "calendar"
}

// RemoteTask is a task as it exists in the external task service.
type RemoteTask struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Priority int      `json:"priority"`
	Labels   []string `json:"labels"`
}

// HasLabel reports whether the remote task carries the given label.
func (t *RemoteTask) HasLabel(label string) bool {
	for _, l := range t.Labels {
		if l == label {
			return true
		}
	}
	return false
}
