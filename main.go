package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"briefing_worker/config"
	"briefing_worker/internal/bootstrap"
	"briefing_worker/pkg/logger"
)

const (
	shutdownTimeout = 30 * time.Second // Maximum time to wait for graceful shutdown
	onceRunTimeout  = 15 * time.Minute
)

func main() {
	logger.Init(logger.Config{
		Level:   logger.LevelInfo,
		Service: "briefing",
	})

	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	mode := flag.String("mode", "all", "Run mode: once, worker, api, all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	switch *mode {
	case "once":
		runOnce(cfg)
	case "api":
		runAPI(cfg, nil)
	case "worker":
		runWorker(cfg, nil)
	case "all":
		worker, cleanup, err := bootstrap.NewWorker(cfg)
		if err != nil {
			logger.Fatal("Failed to initialize worker: %v", err)
		}
		defer cleanup()
		go runWorkerLoop(worker)
		runAPI(cfg, worker.Deps())
	default:
		logger.Fatal("Unknown mode: %s", *mode)
	}
}

// runOnce executes a single pipeline run and exits.
func runOnce(cfg *config.Config) {
	worker, cleanup, err := bootstrap.NewWorker(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize pipeline: %v", err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), onceRunTimeout)
	defer cancel()

	result, err := worker.Deps().Coordinator.RunOnce(ctx)
	if err != nil {
		logger.Fatal("Run failed: %v", err)
	}
	logger.WithFields(map[string]any{
		"run_id":        result.RunID,
		"analyzed":      result.ThreadsAnalyzed,
		"tasks_created": result.TasksCreated,
	}).Info("Run complete")
}

func runAPI(cfg *config.Config, deps *bootstrap.Dependencies) {
	app, cleanup, err := bootstrap.NewAPI(cfg, deps)
	if err != nil {
		logger.Fatal("Failed to initialize API: %v", err)
	}
	defer cleanup()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server (timeout: %v)...", shutdownTimeout)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- app.Shutdown()
		}()

		select {
		case err := <-done:
			if err != nil {
				logger.Error("Error shutting down: %v", err)
			} else {
				logger.Info("API server shut down gracefully")
			}
		case <-ctx.Done():
			logger.Warn("API shutdown timed out, forcing exit")
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("Starting API server on %s", addr)
	if err := app.Listen(addr); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}

func runWorker(cfg *config.Config, worker *bootstrap.Worker) {
	if worker == nil {
		var cleanup func()
		var err error
		worker, cleanup, err = bootstrap.NewWorker(cfg)
		if err != nil {
			logger.Fatal("Failed to initialize worker: %v", err)
		}
		defer cleanup()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down worker (timeout: %v)...", shutdownTimeout)

		done := make(chan struct{})
		go func() {
			worker.Stop()
			close(done)
		}()

		select {
		case <-done:
			logger.Info("Worker shut down gracefully")
		case <-time.After(shutdownTimeout):
			logger.Warn("Worker shutdown timed out, forcing exit")
			os.Exit(1)
		}
	}()

	logger.Info("Starting worker...")
	worker.Start()
}

func runWorkerLoop(worker *bootstrap.Worker) {
	logger.Info("Starting worker...")
	worker.Start()
}
