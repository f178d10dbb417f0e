package domain

import "time"

// CalendarEvent is a single upcoming event from a calendar provider.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end,omitempty"`
	AllDay      bool      `json:"all_day"`
	IsRecurring bool      `json:"is_recurring"`
	Status      string    `json:"status,omitempty"`
}

// StartsWithin reports whether the event starts inside the window from now.
func (e *CalendarEvent) StartsWithin(now time.Time, window time.Duration) bool {
	return !e.Start.Before(now) && e.Start.Before(now.Add(window))
}
