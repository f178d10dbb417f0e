package bootstrap

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"briefing_worker/adapter/in/scheduler"
	"briefing_worker/config"
)

// Worker runs the scheduler loop around the pipeline.
type Worker struct {
	scheduler *scheduler.Scheduler
	deps      *Dependencies
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewWorker wires dependencies and the scheduler.
func NewWorker(cfg *config.Config) (*Worker, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		return nil, nil, err
	}

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Str("component", "worker").Logger()

	sched := scheduler.New(deps.Coordinator, scheduler.Config{
		Times:      cfg.ScheduleTimes,
		LockFile:   cfg.LockFile,
		RunTimeout: 15 * time.Minute,
	}, zlog)

	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		scheduler: sched,
		deps:      deps,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}, cleanup, nil
}

// Start blocks until Stop is called.
func (w *Worker) Start() {
	defer close(w.done)
	w.scheduler.Start(w.ctx)
}

// Stop cancels the scheduler and waits for it to exit.
func (w *Worker) Stop() {
	w.cancel()
	<-w.done
}

// Deps exposes wired dependencies for the one-shot mode.
func (w *Worker) Deps() *Dependencies {
	return w.deps
}
