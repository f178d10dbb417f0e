package out

import (
	"context"

	"briefing_worker/core/domain"
)

// AnalysisCachePort caches completed analyses keyed by thread identity.
// A hit lets the pipeline skip the completion call for an unchanged
// thread. Cache failures are never fatal to a run.
type AnalysisCachePort interface {
	// Get returns the cached analysis and true on a hit.
	Get(ctx context.Context, key string) (*domain.ThreadAnalysis, bool, error)
	Set(ctx context.Context, key string, analysis *domain.ThreadAnalysis) error
}
