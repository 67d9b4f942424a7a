package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/erivative/lingogate/internal/answers"
	"github.com/erivative/lingogate/internal/config"
	"github.com/erivative/lingogate/internal/coordinator"
	"github.com/erivative/lingogate/internal/database"
	"github.com/erivative/lingogate/internal/logging"
	"github.com/erivative/lingogate/internal/metrics"
	"github.com/erivative/lingogate/internal/middleware"
	"github.com/erivative/lingogate/internal/queue"
	"github.com/erivative/lingogate/internal/quota"
	"github.com/erivative/lingogate/internal/tracing"
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

	middleware.SetJWTSecret(cfg.Auth.JWTSecret)

	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer("lingogate-api", cfg.Tracing.JaegerEndpoint)
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

	if err := db.EnsureSchema(context.Background()); err != nil {
		logger.Fatalf("Failed to ensure schema: %v", err)
	}

	repo := database.NewRepository(db)

	redisClient, err := quota.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	q, err := queue.New(cfg.Queue)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	resolver := quota.NewResolver(quota.NewWindowStore(redisClient, cfg.Quota.Window), cfg.Quota)
	store := answers.NewStore(repo, logger)
	coord := coordinator.New(repo, store, resolver, q, cfg.Quota.MaxPendingJobs, logger)

	api := &API{
		coord:    coord,
		repo:     repo,
		store:    store,
		resolver: resolver,
		db:       db,
		logger:   logger,
	}

	// Metrics get their own listener, separate from the API surface.
	metricsServer := metrics.NewServer(cfg.Metrics.Port)
	go func() {
		if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Metrics server stopped: %v", err)
		}
	}()

	router := setupRouter(api, cfg, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Errorf("Metrics server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
