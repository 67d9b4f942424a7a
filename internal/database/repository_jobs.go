package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/erivative/lingogate/pkg/models"
)

// Task queue persistence. FIFO admission order is the enqueued_at ordering;
// position reporting counts not-yet-started jobs admitted earlier.

const jobColumns = `id, user_id, text, dialect, context_mode, status, result,
       origin, error_msg, worker_id, enqueued_at, started_at, completed_at`

func scanJob(row pgx.Row) (*models.Job, error) {
	var job models.Job
	err := row.Scan(
		&job.ID, &job.UserID, &job.Text, &job.Dialect, &job.ContextMode, &job.Status,
		&job.Result, &job.Origin, &job.ErrorMsg, &job.WorkerID, &job.EnqueuedAt,
		&job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// CreateJob persists a new queued job
func (r *Repository) CreateJob(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = models.JobStatusQueued
	}

	query := `
		INSERT INTO jobs (id, user_id, text, dialect, context_mode, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING enqueued_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		job.ID, job.UserID, job.Text, job.Dialect, job.ContextMode, job.Status,
	).Scan(&job.EnqueuedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetJob retrieves a job by ID
func (r *Repository) GetJob(ctx context.Context, id string) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	job, err := scanJob(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// MarkJobRunning transitions a queued job to running. The status guard makes
// a duplicate queue delivery a no-op rather than a double execution.
func (r *Repository) MarkJobRunning(ctx context.Context, id, workerID string) (*models.Job, error) {
	query := `
		UPDATE jobs
		SET status = $2, worker_id = $3, started_at = now()
		WHERE id = $1 AND status = $4
		RETURNING ` + jobColumns

	job, err := scanJob(r.db.Pool.QueryRow(ctx, query,
		id, models.JobStatusRunning, workerID, models.JobStatusQueued))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark job running: %w", err)
	}

	return job, nil
}

// CompleteJob marks a job done with its result
func (r *Repository) CompleteJob(ctx context.Context, id, result, origin string) error {
	query := `
		UPDATE jobs
		SET status = $2, result = $3, origin = $4, completed_at = now()
		WHERE id = $1
	`
	if _, err := r.db.Pool.Exec(ctx, query, id, models.JobStatusDone, result, origin); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}

// FailJob marks a job failed with the error message
func (r *Repository) FailJob(ctx context.Context, id, errorMsg string) error {
	query := `
		UPDATE jobs
		SET status = $2, error_msg = $3, completed_at = now()
		WHERE id = $1
	`
	if _, err := r.db.Pool.Exec(ctx, query, id, models.JobStatusFailed, errorMsg); err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}
	return nil
}

// QueuePosition returns the number of still-queued jobs admitted strictly
// before the given job. The result is a snapshot at query time. An unknown
// id yields position 0; callers resolve the job first when existence matters.
func (r *Repository) QueuePosition(ctx context.Context, id string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM jobs
		WHERE status = $2
		  AND enqueued_at < (SELECT enqueued_at FROM jobs WHERE id = $1)
	`

	var position int
	err := r.db.Pool.QueryRow(ctx, query, id, models.JobStatusQueued).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("failed to get queue position: %w", err)
	}

	return position, nil
}

// PendingJobCount returns the number of queued jobs
func (r *Repository) PendingJobCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM jobs WHERE status = $1`, models.JobStatusQueued).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending jobs: %w", err)
	}
	return count, nil
}

// ListActiveJobs retrieves queued and running jobs in admission order
func (r *Repository) ListActiveJobs(ctx context.Context, limit int) ([]*models.Job, error) {
	query := `SELECT ` + jobColumns + `
		FROM jobs
		WHERE status IN ($1, $2)
		ORDER BY enqueued_at ASC
		LIMIT $3`

	rows, err := r.db.Pool.Query(ctx, query,
		models.JobStatusQueued, models.JobStatusRunning, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list active jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// PurgeCompletedJobs deletes terminal jobs older than the retention window
func (r *Repository) PurgeCompletedJobs(ctx context.Context, olderThanDays int) (int64, error) {
	query := `
		DELETE FROM jobs
		WHERE status IN ($1, $2)
		  AND completed_at < now() - ($3 * INTERVAL '1 day')
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		models.JobStatusDone, models.JobStatusFailed, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("failed to purge jobs: %w", err)
	}

	return tag.RowsAffected(), nil
}
