package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/erivative/lingogate/internal/answers"
	"github.com/erivative/lingogate/internal/backend"
	"github.com/erivative/lingogate/internal/config"
	"github.com/erivative/lingogate/internal/database"
	"github.com/erivative/lingogate/internal/logging"
	"github.com/erivative/lingogate/internal/maintenance"
	"github.com/erivative/lingogate/internal/queue"
	"github.com/erivative/lingogate/internal/tracing"
	"github.com/erivative/lingogate/internal/worker"
	"github.com/erivative/lingogate/pkg/models"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer("lingogate-worker", cfg.Tracing.JaegerEndpoint)
		if err != nil {
			logger.Fatalf("Failed to init tracer: %v", err)
		}
		defer closer.Close()
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := database.NewRepository(db)

	q, err := queue.New(cfg.Queue)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	store := answers.NewStore(repo, logger)
	translator := backend.NewThrottled(
		backend.NewClient(cfg.Backend, logger),
		cfg.Backend.RPS, cfg.Backend.Burst,
	)
	service := worker.NewService(cfg.Worker, repo, store, translator, q, logger)

	janitor := maintenance.NewJanitor(repo, q, logger, maintenance.Options{})
	if err := janitor.Start(); err != nil {
		logger.Fatalf("Failed to start janitor: %v", err)
	}
	defer janitor.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down worker gracefully...")
		cancel()
	}()

	jobHandler := func(job *models.Job) error {
		if err := service.ProcessJob(ctx, job); err != nil {
			logger.WithJobID(job.ID).ErrorWithErr("Failed to process job", err)
			return err
		}
		return nil
	}

	logger.WithWorkerID(service.WorkerID()).Infof("Worker started with %d consumers", cfg.Worker.Count)
	for i := 0; i < cfg.Worker.Count; i++ {
		if err := q.ConsumeJobs(ctx, jobHandler); err != nil {
			logger.Fatalf("Failed to consume jobs: %v", err)
		}
	}

	<-ctx.Done()
	logger.Info("Worker stopped")
}
