package out

import (
	"context"

	"briefing_worker/core/domain"
)

// ArtifactStorePort persists the briefing artifact produced by a run.
type ArtifactStorePort interface {
	Persist(ctx context.Context, artifact *domain.RunArtifact) error
}

// RunRepositoryPort records run summaries for history queries.
type RunRepositoryPort interface {
	SaveRun(ctx context.Context, artifact *domain.RunArtifact) error
	LatestRun(ctx context.Context) (*domain.RunResult, error)
}
