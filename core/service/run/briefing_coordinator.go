package run

import (
	"context"
	"time"

	"github.com/go-pkgz/pool"
	"github.com/google/uuid"

	"briefing_worker/core/domain"
	portin "briefing_worker/core/port/in"
	"briefing_worker/core/port/out"
	"briefing_worker/core/service/analysis"
	"briefing_worker/core/service/grouping"
	"briefing_worker/core/service/scoring"
	"briefing_worker/core/service/synthesis"
	"briefing_worker/pkg/logger"
)

const DefaultAnalysisWorkers = 4

// CoordinatorConfig tunes the pipeline run.
type CoordinatorConfig struct {
	EmailLookback     time.Duration
	EmailMaxResults   int
	CalendarLookahead time.Duration
	TopThreads        int
	AnalysisWorkers   int
}

// Coordinator wires the pipeline stages into a single run.
type Coordinator struct {
	emails      out.EmailProviderPort
	calendar    out.CalendarProviderPort
	grouper     *grouping.Grouper
	scorer      *scoring.Scorer
	extractor   *analysis.Extractor
	synthesizer *synthesis.Synthesizer
	artifacts   []out.ArtifactStorePort
	runs        out.RunRepositoryPort
	cfg         CoordinatorConfig
	log         *logger.Logger
}

var _ portin.RunUseCase = (*Coordinator)(nil)

func NewCoordinator(
	emails out.EmailProviderPort,
	calendar out.CalendarProviderPort,
	grouper *grouping.Grouper,
	scorer *scoring.Scorer,
	extractor *analysis.Extractor,
	synthesizer *synthesis.Synthesizer,
	artifacts []out.ArtifactStorePort,
	runs out.RunRepositoryPort,
	cfg CoordinatorConfig,
) *Coordinator {
	if cfg.AnalysisWorkers <= 0 {
		cfg.AnalysisWorkers = DefaultAnalysisWorkers
	}
	if cfg.EmailLookback <= 0 {
		cfg.EmailLookback = 24 * time.Hour
	}
	if cfg.CalendarLookahead <= 0 {
		cfg.CalendarLookahead = 7 * 24 * time.Hour
	}
	return &Coordinator{
		emails:      emails,
		calendar:    calendar,
		grouper:     grouper,
		scorer:      scorer,
		extractor:   extractor,
		synthesizer: synthesizer,
		artifacts:   artifacts,
		runs:        runs,
		cfg:         cfg,
		log:         logger.Default().WithField("component", "coordinator"),
	}
}

// RunOnce executes one full pipeline run. Only the initial email fetch
// can fail the run; every later stage degrades and the result still
// reflects what happened.
func (c *Coordinator) RunOnce(ctx context.Context) (*domain.RunResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := c.log.WithRunID(runID)

	messages, err := c.emails.FetchRecent(ctx, c.cfg.EmailLookback, c.cfg.EmailMaxResults)
	if err != nil {
		log.WithError(err).Error("email fetch failed")
		return nil, err
	}

	var events []domain.CalendarEvent
	if c.calendar != nil {
		events, err = c.calendar.FetchUpcoming(ctx, c.cfg.CalendarLookahead)
		if err != nil {
			log.WithError(err).Warn("calendar fetch failed, continuing without events")
			events = nil
		}
	}

	threads := c.grouper.GroupThreads(messages)
	top := c.scorer.TopThreads(threads, c.cfg.TopThreads)

	log.WithFields(map[string]any{
		"messages": len(messages),
		"threads":  len(threads),
		"selected": len(top),
		"events":   len(events),
	}).Info("fetch and scoring complete")

	analyses := c.analyzeAll(ctx, top)

	report := c.synthesizer.Reconcile(ctx, analyses, events)

	result := &domain.RunResult{
		RunID:           runID,
		ThreadsFetched:  len(threads),
		ThreadsAnalyzed: len(analyses),
		TasksCreated:    report.Created,
		TasksDeleted:    report.Deleted,
		AnalysesByTier:  countByTier(analyses),
		GeneratedAtUTC:  time.Now().UTC(),
		DurationMS:      time.Since(start).Milliseconds(),
	}

	artifact := &domain.RunArtifact{
		Result:   *result,
		Analyses: analyses,
		Events:   events,
		Tasks:    report.Intents,
	}
	for _, store := range c.artifacts {
		if err := store.Persist(ctx, artifact); err != nil {
			log.WithError(err).Warn("artifact persist failed")
		}
	}

	if c.runs != nil {
		if err := c.runs.SaveRun(ctx, artifact); err != nil {
			log.WithError(err).Warn("run history write failed")
		}
	}

	log.WithDuration(time.Since(start)).WithFields(map[string]any{
		"analyzed":      result.ThreadsAnalyzed,
		"tasks_created": result.TasksCreated,
		"tasks_deleted": result.TasksDeleted,
	}).Info("run complete")

	return result, nil
}

// analysisJob carries one thread through the worker pool with its slot
// in the ordered result slice.
type analysisJob struct {
	idx    int
	thread domain.EmailThread
}

type analysisWorker struct {
	extractor *analysis.Extractor
	results   []*domain.ThreadAnalysis
}

// Do implements pool.Worker. Each job writes to its own result slot.
func (w *analysisWorker) Do(ctx context.Context, job analysisJob) error {
	w.results[job.idx] = w.extractor.AnalyzeThread(ctx, &job.thread)
	return nil
}

// analyzeAll runs the extractor over the selected threads with bounded
// concurrency, returning analyses in the same order as the input. A
// cancelled context surfaces as fallback analyses, never as a missing
// entry.
func (c *Coordinator) analyzeAll(ctx context.Context, top []scoring.ScoredThread) []domain.ThreadAnalysis {
	if len(top) == 0 {
		return []domain.ThreadAnalysis{}
	}

	worker := &analysisWorker{
		extractor: c.extractor,
		results:   make([]*domain.ThreadAnalysis, len(top)),
	}

	p := pool.New[analysisJob](c.cfg.AnalysisWorkers, worker).WithContinueOnError()
	if err := p.Go(ctx); err != nil {
		c.log.WithError(err).Warn("analysis pool failed to start, analyzing sequentially")
		for i, st := range top {
			worker.results[i] = c.extractor.AnalyzeThread(ctx, &st.Thread)
		}
	} else {
		for i, st := range top {
			p.Submit(analysisJob{idx: i, thread: st.Thread})
		}
		if err := p.Close(ctx); err != nil {
			c.log.WithError(err).Warn("analysis pool closed with error")
		}
	}

	analyses := make([]domain.ThreadAnalysis, len(top))
	for i := range worker.results {
		// Slots skipped by a cancelled pool get fallback analyses.
		if worker.results[i] == nil {
			worker.results[i] = c.extractor.AnalyzeThread(ctx, &top[i].Thread)
		}
		analyses[i] = *worker.results[i]
	}

	return analyses
}

func countByTier(analyses []domain.ThreadAnalysis) map[domain.PriorityTier]int {
	counts := map[domain.PriorityTier]int{
		domain.TierHigh:   0,
		domain.TierMedium: 0,
		domain.TierLow:    0,
	}
	for _, a := range analyses {
		counts[a.Tier]++
	}
	return counts
}
