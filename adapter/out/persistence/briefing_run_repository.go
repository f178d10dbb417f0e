package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"briefing_worker/core/domain"
	"briefing_worker/core/port/out"
)

// RunRepository implements out.RunRepositoryPort on Postgres.
type RunRepository struct {
	db *sqlx.DB
}

var _ out.RunRepositoryPort = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// EnsureSchema creates the run history table when it is missing.
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS briefing_runs (
			run_id           TEXT PRIMARY KEY,
			threads_fetched  INT NOT NULL,
			threads_analyzed INT NOT NULL,
			tasks_created    INT NOT NULL,
			tasks_deleted    INT NOT NULL,
			tier_high        INT NOT NULL,
			tier_medium      INT NOT NULL,
			tier_low         INT NOT NULL,
			task_titles      TEXT[] NOT NULL DEFAULT '{}',
			duration_ms      BIGINT NOT NULL,
			generated_at     TIMESTAMPTZ NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure run schema: %w", err)
	}
	return nil
}

type runRow struct {
	RunID           string         `db:"run_id"`
	ThreadsFetched  int            `db:"threads_fetched"`
	ThreadsAnalyzed int            `db:"threads_analyzed"`
	TasksCreated    int            `db:"tasks_created"`
	TasksDeleted    int            `db:"tasks_deleted"`
	TierHigh        int            `db:"tier_high"`
	TierMedium      int            `db:"tier_medium"`
	TierLow         int            `db:"tier_low"`
	TaskTitles      pq.StringArray `db:"task_titles"`
	DurationMS      int64          `db:"duration_ms"`
	GeneratedAt     time.Time      `db:"generated_at"`
}

// SaveRun inserts one history row per run.
func (r *RunRepository) SaveRun(ctx context.Context, artifact *domain.RunArtifact) error {
	result := artifact.Result

	titles := make([]string, 0, len(artifact.Tasks))
	for _, t := range artifact.Tasks {
		titles = append(titles, t.Title)
	}

	query := `
		INSERT INTO briefing_runs (
			run_id, threads_fetched, threads_analyzed, tasks_created,
			tasks_deleted, tier_high, tier_medium, tier_low,
			task_titles, duration_ms, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (run_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		result.RunID, result.ThreadsFetched, result.ThreadsAnalyzed,
		result.TasksCreated, result.TasksDeleted,
		result.AnalysesByTier[domain.TierHigh],
		result.AnalysesByTier[domain.TierMedium],
		result.AnalysesByTier[domain.TierLow],
		pq.Array(titles), result.DurationMS, result.GeneratedAtUTC,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// LatestRun returns the most recent run summary, or nil when no run has
// been recorded.
func (r *RunRepository) LatestRun(ctx context.Context) (*domain.RunResult, error) {
	query := `
		SELECT run_id, threads_fetched, threads_analyzed, tasks_created,
		       tasks_deleted, tier_high, tier_medium, tier_low,
		       task_titles, duration_ms, generated_at
		FROM briefing_runs
		ORDER BY generated_at DESC
		LIMIT 1`

	var row runRow
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest run: %w", err)
	}

	return &domain.RunResult{
		RunID:           row.RunID,
		ThreadsFetched:  row.ThreadsFetched,
		ThreadsAnalyzed: row.ThreadsAnalyzed,
		TasksCreated:    row.TasksCreated,
		TasksDeleted:    row.TasksDeleted,
		AnalysesByTier: map[domain.PriorityTier]int{
			domain.TierHigh:   row.TierHigh,
			domain.TierMedium: row.TierMedium,
			domain.TierLow:    row.TierLow,
		},
		GeneratedAtUTC: row.GeneratedAt,
		DurationMS:     row.DurationMS,
	}, nil
}
