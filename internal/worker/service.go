package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erivative/lingogate/internal/backend"
	"github.com/erivative/lingogate/internal/config"
	"github.com/erivative/lingogate/internal/dictionary"
	"github.com/erivative/lingogate/internal/logging"
	"github.com/erivative/lingogate/internal/metrics"
	"github.com/erivative/lingogate/internal/tracing"
	"github.com/erivative/lingogate/pkg/models"
)

// historyLimit is how many recent inputs feed the backend in context mode.
const historyLimit = 5

// Repository defines the persistence operations the worker needs
type Repository interface {
	GetHistory(ctx context.Context, userID int64, limit int) ([]string, error)
	AddHistory(ctx context.Context, userID int64, text string) error
	MarkJobRunning(ctx context.Context, id, workerID string) (*models.Job, error)
	CompleteJob(ctx context.Context, id, result, origin string) error
	FailJob(ctx context.Context, id, errorMsg string) error
}

// AnswerCache stores successful translations for reuse
type AnswerCache interface {
	InsertCache(ctx context.Context, text, dialect, translation string) (*models.AnswerEntry, error)
}

// ResultPublisher delivers terminal job results to downstream consumers
type ResultPublisher interface {
	PublishResult(ctx context.Context, result *models.JobResult) error
}

// Service processes translation jobs pulled off the queue. A job failure is
// recorded and published; it never stops the worker loop, so ProcessJob only
// returns an error for infrastructure faults where redelivery can help.
type Service struct {
	repo       Repository
	cache      AnswerCache
	translator backend.Translator
	publisher  ResultPublisher
	cfg        config.WorkerConfig
	logger     *logging.Logger
	workerID   string
}

// NewService creates a worker service
func NewService(
	cfg config.WorkerConfig,
	repo Repository,
	cache AnswerCache,
	translator backend.Translator,
	publisher ResultPublisher,
	logger *logging.Logger,
) *Service {
	workerID := uuid.New().String()
	return &Service{
		repo:       repo,
		cache:      cache,
		translator: translator,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger.WithWorkerID(workerID),
		workerID:   workerID,
	}
}

// WorkerID returns this worker's identity as recorded on jobs it runs
func (s *Service) WorkerID() string {
	return s.workerID
}

// ProcessJob runs one translation job to a terminal status
func (s *Service) ProcessJob(ctx context.Context, job *models.Job) error {
	claimed, err := s.repo.MarkJobRunning(ctx, job.ID, s.workerID)
	if errors.Is(err, models.ErrJobNotFound) {
		// Already claimed or already terminal; a duplicate delivery.
		s.logger.LogJobEvent(job.ID, "skipped", "duplicate delivery")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to claim job: %w", err)
	}

	metrics.JobsInProgress.Inc()
	defer metrics.JobsInProgress.Dec()
	metrics.JobQueueTime.Observe(time.Since(claimed.EnqueuedAt).Seconds())
	s.logger.LogJobEvent(claimed.ID, "started", claimed.Status)

	start := time.Now()
	result, origin, jobErr := s.translate(ctx, claimed)

	if jobErr != nil {
		errMsg := jobErr.Error()
		errType := "backend"
		if errors.Is(jobErr, context.DeadlineExceeded) {
			errMsg = models.JobErrorTimeout
			errType = "timeout"
		}
		metrics.RecordError("worker", errType)
		if err := s.repo.FailJob(ctx, claimed.ID, errMsg); err != nil {
			return fmt.Errorf("failed to record job failure: %w", err)
		}
		metrics.RecordJobCompleted(models.JobStatusFailed, "", time.Since(start).Seconds())
		s.logger.WithJobID(claimed.ID).ErrorWithErr("Job failed", jobErr)
		s.publish(ctx, claimed, models.JobStatusFailed, "", "", errMsg)
		return nil
	}

	if err := s.repo.AddHistory(ctx, claimed.UserID, claimed.Text); err != nil {
		s.logger.WithJobID(claimed.ID).ErrorWithErr("Failed to record history", err)
	}

	if err := s.repo.CompleteJob(ctx, claimed.ID, result, origin); err != nil {
		return fmt.Errorf("failed to record job result: %w", err)
	}
	metrics.RecordJobCompleted(models.JobStatusDone, origin, time.Since(start).Seconds())
	s.logger.LogJobEvent(claimed.ID, "completed", models.JobStatusDone)
	s.publish(ctx, claimed, models.JobStatusDone, result, origin, "")
	return nil
}

// translate calls the backend under the per-job timeout. On failure the
// offline dictionary is consulted; a hit downgrades the failure to a result
// with origin "fallback".
func (s *Service) translate(ctx context.Context, job *models.Job) (string, string, error) {
	var history []string
	if job.ContextMode {
		var err error
		history, err = s.repo.GetHistory(ctx, job.UserID, historyLimit)
		if err != nil {
			s.logger.WithJobID(job.ID).ErrorWithErr("Failed to load history", err)
			history = nil
		}
	}

	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	span, jobCtx := tracing.JobSpan(jobCtx, job.ID)
	translation, err := s.translator.Translate(jobCtx, backend.Request{
		Text:    job.Text,
		Dialect: job.Dialect,
		History: history,
	})
	tracing.LogError(span, err)
	tracing.FinishSpan(span)
	if err != nil {
		if entry, ok := dictionary.Lookup(job.Text); ok {
			s.logger.WithJobID(job.ID).Warnf("Backend failed, serving offline dictionary: %v", err)
			return dictionary.Format(job.Text, entry), models.OriginFallback, nil
		}
		if jobCtx.Err() != nil && errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
			return "", "", context.DeadlineExceeded
		}
		return "", "", err
	}

	// Context-mode results depend on the user's history, so they are not
	// reusable across requests and skip the cache.
	if !job.ContextMode || len(history) == 0 {
		if _, err := s.cache.InsertCache(ctx, job.Text, job.Dialect, translation); err != nil {
			s.logger.WithJobID(job.ID).ErrorWithErr("Failed to cache translation", err)
		}
	}

	return translation, models.OriginCached, nil
}

func (s *Service) publish(ctx context.Context, job *models.Job, status, result, origin, errMsg string) {
	if s.publisher == nil {
		return
	}

	jobResult := &models.JobResult{
		JobID:       job.ID,
		UserID:      job.UserID,
		Status:      status,
		Result:      result,
		Origin:      origin,
		ErrorMsg:    errMsg,
		CompletedAt: time.Now(),
	}
	if err := s.publisher.PublishResult(ctx, jobResult); err != nil {
		s.logger.WithJobID(job.ID).ErrorWithErr("Failed to publish result", err)
	}
}
