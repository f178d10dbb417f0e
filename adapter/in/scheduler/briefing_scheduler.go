// Package scheduler triggers pipeline runs at fixed local times.
package scheduler

import (
	"context"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"briefing_worker/core/port/in"
)

// Config holds scheduler settings.
type Config struct {
	// Times are local "HH:MM" slots, e.g. "06:00".
	Times []string
	// LockFile guards against overlapping runs across processes.
	LockFile string
	// RunTimeout bounds a single pipeline run.
	RunTimeout time.Duration
}

// Scheduler fires RunOnce at each configured slot. A slot fires at most
// once per day, and a trigger that finds the lock held is skipped, not
// queued.
type Scheduler struct {
	runner in.RunUseCase
	cfg    Config
	log    zerolog.Logger

	fired map[string]string // slot -> date last fired
}

func New(runner in.RunUseCase, cfg Config, log zerolog.Logger) *Scheduler {
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 15 * time.Minute
	}
	if cfg.LockFile == "" {
		cfg.LockFile = "/tmp/briefing_worker.lock"
	}
	return &Scheduler{
		runner: runner,
		cfg:    cfg,
		log:    log.With().Str("component", "scheduler").Logger(),
		fired:  make(map[string]string),
	}
}

// Start blocks until ctx is cancelled, checking the schedule once a
// minute.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info().Strs("times", s.cfg.Times).Msg("scheduler started")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	s.tick(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

// tick fires the run when the current minute matches an unfired slot.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	current := now.Format("15:04")
	date := now.Format("2006-01-02")

	for _, slot := range s.cfg.Times {
		slot = strings.TrimSpace(slot)
		if slot != current {
			continue
		}
		if s.fired[slot] == date {
			continue
		}
		s.fired[slot] = date
		s.runLocked(ctx, slot)
	}
}

// runLocked runs the pipeline under the file lock. A held lock means
// another process is mid-run; the slot is skipped.
func (s *Scheduler) runLocked(ctx context.Context, slot string) {
	release, err := acquireLock(s.cfg.LockFile)
	if err != nil {
		s.log.Warn().Err(err).Str("slot", slot).Msg("lock held, skipping run")
		return
	}
	defer release()

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.runner.RunOnce(runCtx)
	if err != nil {
		s.log.Error().Err(err).Str("slot", slot).Msg("scheduled run failed")
		return
	}

	s.log.Info().
		Str("slot", slot).
		Str("run_id", result.RunID).
		Int("threads_analyzed", result.ThreadsAnalyzed).
		Int("tasks_created", result.TasksCreated).
		Dur("took", time.Since(start)).
		Msg("scheduled run complete")
}

// acquireLock takes a non-blocking exclusive flock on path. The
// returned release closes and unlocks the file.
func acquireLock(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, err
	}
	return func() {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
	}, nil
}
