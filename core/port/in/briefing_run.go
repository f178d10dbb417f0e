package in

import (
	"context"

	"briefing_worker/core/domain"
)

// RunUseCase triggers one full briefing pipeline run.
type RunUseCase interface {
	// RunOnce executes fetch, grouping, scoring, analysis, synthesis
	// and artifact persistence. After the fetch phase succeeds the run
	// degrades instead of aborting; a RunResult is always returned when
	// err is nil.
	RunOnce(ctx context.Context) (*domain.RunResult, error)
}
