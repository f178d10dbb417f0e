package out

import (
	"context"
	"time"

	"briefing_worker/core/domain"
)

// CalendarProviderPort fetches upcoming events from the calendar provider.
type CalendarProviderPort interface {
	// FetchUpcoming returns events starting between now and now+lookahead.
	FetchUpcoming(ctx context.Context, lookahead time.Duration) ([]domain.CalendarEvent, error)
}
