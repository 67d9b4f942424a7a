package coordinator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/erivative/lingogate/internal/logging"
	"github.com/erivative/lingogate/internal/metrics"
	"github.com/erivative/lingogate/internal/quota"
	"github.com/erivative/lingogate/internal/tracing"
	"github.com/erivative/lingogate/pkg/models"
)

// Response statuses
const (
	StatusServed   = "served"
	StatusEnqueued = "enqueued"
	StatusRejected = "rejected"
)

// Repository defines the persistence operations the coordinator needs
type Repository interface {
	GetOrCreateUser(ctx context.Context, userID int64, username string) (*models.User, error)
	GetHistory(ctx context.Context, userID int64, limit int) ([]string, error)
	AddHistory(ctx context.Context, userID int64, text string) error
	CreateJob(ctx context.Context, job *models.Job) error
	FailJob(ctx context.Context, id, errorMsg string) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	QueuePosition(ctx context.Context, id string) (int, error)
	PendingJobCount(ctx context.Context) (int, error)
	ListActiveJobs(ctx context.Context, limit int) ([]*models.Job, error)
}

// AnswerStore resolves stored answers
type AnswerStore interface {
	Lookup(ctx context.Context, text, dialect string) (*models.AnswerEntry, error)
	LookupVerified(ctx context.Context, text, dialect string) (*models.AnswerEntry, error)
	Stats(ctx context.Context) (*models.AnswerStats, error)
}

// Admitter decides whether a request may proceed
type Admitter interface {
	Admit(ctx context.Context, user *models.User) (*quota.Decision, error)
	WhitelistMode() bool
}

// JobPublisher hands admitted work to the worker transport
type JobPublisher interface {
	PublishJob(ctx context.Context, job *models.Job) error
}

// Request is one incoming translation request
type Request struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// Response is the coordinator's immediate answer. Served carries the result;
// Enqueued carries a handle; Rejected carries the admission decision.
type Response struct {
	Status   string            `json:"status"`
	Result   string            `json:"result,omitempty"`
	Origin   string            `json:"origin,omitempty"`
	Decision *quota.Decision   `json:"decision"`
	Job      *models.JobHandle `json:"job,omitempty"`
}

// Stats is a combined read-only snapshot for the admin surface
type Stats struct {
	Answers       *models.AnswerStats `json:"answers"`
	PendingJobs   int                 `json:"pending_jobs"`
	WhitelistMode bool                `json:"whitelist_mode"`
}

// JobView is a job snapshot plus its queue position while still queued
type JobView struct {
	Job      *models.Job `json:"job"`
	Position int         `json:"position,omitempty"`
}

// Coordinator glues admission, the answer store, and the task queue together.
// It owns no data of its own.
type Coordinator struct {
	repo       Repository
	store      AnswerStore
	admitter   Admitter
	publisher  JobPublisher
	maxPending int
	logger     *logging.Logger
}

// New creates a coordinator. maxPending bounds the number of queued jobs;
// zero or negative means unbounded.
func New(
	repo Repository,
	store AnswerStore,
	admitter Admitter,
	publisher JobPublisher,
	maxPending int,
	logger *logging.Logger,
) *Coordinator {
	return &Coordinator{
		repo:       repo,
		store:      store,
		admitter:   admitter,
		publisher:  publisher,
		maxPending: maxPending,
		logger:     logger,
	}
}

// Handle runs one request through admission, lookup, and enqueue. Exactly one
// terminal outcome is reached: rejected, served, or enqueued. Admission is
// checked before any lookup, so denied requests never touch stored answers.
func (c *Coordinator) Handle(ctx context.Context, req Request) (*Response, error) {
	span, ctx := tracing.RequestSpan(ctx, req.UserID)
	defer tracing.FinishSpan(span)

	user, err := c.repo.GetOrCreateUser(ctx, req.UserID, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	decision, err := c.admitter.Admit(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("admission check: %w", err)
	}
	c.logger.LogQuotaDecision(user.ID, decision.Tier, decision.Allowed, decision.RetryAfter)
	if !decision.Allowed {
		metrics.RecordAdmission(decision.Tier, "rejected")
		return &Response{Status: StatusRejected, Decision: decision}, nil
	}
	metrics.RecordAdmission(decision.Tier, "admitted")

	entry, err := c.lookup(ctx, user, req.Text)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		if err := c.repo.AddHistory(ctx, user.ID, req.Text); err != nil {
			c.logger.WithUserID(user.ID).ErrorWithErr("Failed to record history", err)
		}
		return &Response{
			Status:   StatusServed,
			Result:   entry.Translation,
			Origin:   entry.Origin,
			Decision: decision,
		}, nil
	}

	handle, err := c.enqueue(ctx, user, req.Text)
	if err != nil {
		tracing.LogError(span, err)
		return nil, err
	}

	tracing.SetTag(span, "job_id", handle.ID)
	return &Response{Status: StatusEnqueued, Decision: decision, Job: handle}, nil
}

// lookup applies the precedence rules. Context-mode users with history get a
// history-dependent translation, so only the verified layer applies to them.
func (c *Coordinator) lookup(ctx context.Context, user *models.User, text string) (*models.AnswerEntry, error) {
	if user.ContextMode {
		history, err := c.repo.GetHistory(ctx, user.ID, 1)
		if err != nil {
			c.logger.WithUserID(user.ID).ErrorWithErr("Failed to load history", err)
		}
		if len(history) > 0 {
			return c.store.LookupVerified(ctx, text, user.Dialect)
		}
	}
	return c.store.Lookup(ctx, text, user.Dialect)
}

// enqueue persists the job, publishes it to the transport, and reports its
// position among still-queued jobs.
func (c *Coordinator) enqueue(ctx context.Context, user *models.User, text string) (*models.JobHandle, error) {
	pending, err := c.repo.PendingJobCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending jobs: %w", err)
	}
	if c.maxPending > 0 && pending >= c.maxPending {
		return nil, models.ErrQueueFull
	}

	job := &models.Job{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Text:        text,
		Dialect:     user.Dialect,
		ContextMode: user.ContextMode,
		Status:      models.JobStatusQueued,
	}
	if err := c.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}
	if err := c.publisher.PublishJob(ctx, job); err != nil {
		// Without the broker copy no worker will ever pick this job up.
		// Mark the row failed so it stops counting against the queue bound
		// and cannot be resurrected as an orphan later.
		if failErr := c.repo.FailJob(ctx, job.ID, "failed to reach job transport"); failErr != nil {
			c.logger.WithJobID(job.ID).ErrorWithErr("Failed to mark unpublished job failed", failErr)
		}
		return nil, fmt.Errorf("failed to publish job: %w", err)
	}

	position, err := c.repo.QueuePosition(ctx, job.ID)
	if err != nil {
		c.logger.WithJobID(job.ID).ErrorWithErr("Failed to compute queue position", err)
		position = pending
	}

	metrics.RecordJobEnqueued(pending + 1)
	c.logger.LogJobEvent(job.ID, "enqueued", job.Status)

	return &models.JobHandle{ID: job.ID, Position: position}, nil
}

// JobStatus returns a job snapshot; queued jobs include their position
func (c *Coordinator) JobStatus(ctx context.Context, id string) (*JobView, error) {
	job, err := c.repo.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &JobView{Job: job}
	if job.Status == models.JobStatusQueued {
		position, err := c.repo.QueuePosition(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to compute queue position: %w", err)
		}
		view.Position = position
	}

	return view, nil
}

// QueueStatus returns the pending count and the active jobs, FIFO order
func (c *Coordinator) QueueStatus(ctx context.Context, limit int) (*models.QueueStatus, error) {
	pending, err := c.repo.PendingJobCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending jobs: %w", err)
	}

	jobs, err := c.repo.ListActiveJobs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list active jobs: %w", err)
	}

	return &models.QueueStatus{PendingCount: pending, Jobs: jobs}, nil
}

// Stats returns the combined read-only snapshot
func (c *Coordinator) Stats(ctx context.Context) (*Stats, error) {
	answers, err := c.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read answer stats: %w", err)
	}

	pending, err := c.repo.PendingJobCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending jobs: %w", err)
	}

	return &Stats{
		Answers:       answers,
		PendingJobs:   pending,
		WhitelistMode: c.admitter.WhitelistMode(),
	}, nil
}
