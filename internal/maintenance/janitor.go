package maintenance

import (
	"context"
	"time"

	"github.com/erivative/lingogate/internal/logging"
	"github.com/erivative/lingogate/internal/metrics"
	"github.com/erivative/lingogate/pkg/models"
)

const (
	defaultInterval   = time.Hour
	defaultRetainDays = 7
	requeueBatchSize  = 1000
)

// Repository defines the persistence operations the janitor needs
type Repository interface {
	ListActiveJobs(ctx context.Context, limit int) ([]*models.Job, error)
	PurgeCompletedJobs(ctx context.Context, olderThanDays int) (int64, error)
}

// JobTransport republishes recovered jobs and reports the broker's backlog
type JobTransport interface {
	PublishJob(ctx context.Context, job *models.Job) error
	GetQueueDepth() (int, error)
}

// Janitor keeps the job table tidy. On start it republishes jobs that are
// still queued in the database but may no longer be on the broker (a broker
// wipe loses them; the database copy survives); duplicate deliveries are
// harmless because claiming a job is status-guarded. Afterwards it runs on a
// ticker, purging old terminal jobs and refreshing the queue depth gauge
// from the broker.
type Janitor struct {
	repo       Repository
	transport  JobTransport
	logger     *logging.Logger
	interval   time.Duration
	retainDays int
	ctx        context.Context
	cancel     context.CancelFunc
}

// Options tune the janitor; zero values take defaults
type Options struct {
	Interval   time.Duration
	RetainDays int
}

// NewJanitor creates a janitor
func NewJanitor(repo Repository, transport JobTransport, logger *logging.Logger, opts Options) *Janitor {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.RetainDays <= 0 {
		opts.RetainDays = defaultRetainDays
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Janitor{
		repo:       repo,
		transport:  transport,
		logger:     logger,
		interval:   opts.Interval,
		retainDays: opts.RetainDays,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start recovers orphaned jobs and begins the purge loop
func (j *Janitor) Start() error {
	if err := j.requeueOrphans(); err != nil {
		return err
	}

	go j.loop()

	j.logger.Infof("Janitor started, purging terminal jobs older than %d days every %v",
		j.retainDays, j.interval)
	return nil
}

// Stop stops the purge loop
func (j *Janitor) Stop() {
	j.cancel()
}

func (j *Janitor) requeueOrphans() error {
	jobs, err := j.repo.ListActiveJobs(j.ctx, requeueBatchSize)
	if err != nil {
		return err
	}

	requeued := 0
	for _, job := range jobs {
		if job.Status != models.JobStatusQueued {
			continue
		}
		if err := j.transport.PublishJob(j.ctx, job); err != nil {
			j.logger.WithJobID(job.ID).ErrorWithErr("Failed to republish job", err)
			continue
		}
		requeued++
	}

	if requeued > 0 {
		j.logger.Infof("Republished %d queued jobs", requeued)
	}
	return nil
}

func (j *Janitor) loop() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			j.purge()
			j.refreshQueueDepth()
		}
	}
}

// refreshQueueDepth resets the queue depth gauge from the broker. Enqueues
// set it too, but only the broker sees consumption, so the gauge would only
// ever ratchet up without this.
func (j *Janitor) refreshQueueDepth() {
	depth, err := j.transport.GetQueueDepth()
	if err != nil {
		j.logger.ErrorWithErr("Failed to read queue depth", err)
		return
	}
	metrics.JobsQueueDepth.Set(float64(depth))
}

func (j *Janitor) purge() {
	purged, err := j.repo.PurgeCompletedJobs(j.ctx, j.retainDays)
	if err != nil {
		j.logger.ErrorWithErr("Failed to purge terminal jobs", err)
		return
	}
	if purged > 0 {
		j.logger.Infof("Purged %d terminal jobs", purged)
	}
}
