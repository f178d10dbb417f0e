package out

import (
	"context"
	"time"

	"briefing_worker/core/domain"
)

// EmailProviderPort fetches recent messages from the mail provider.
type EmailProviderPort interface {
	// FetchRecent returns messages received within the lookback window,
	// newest last, capped at max results.
	FetchRecent(ctx context.Context, lookback time.Duration, max int) ([]domain.EmailMessage, error)
}
