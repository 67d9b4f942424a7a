package models

import "time"

// Job represents one unit of deferred translation work.
type Job struct {
	ID          string     `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	Text        string     `json:"text" db:"text"`
	Dialect     string     `json:"dialect" db:"dialect"`
	ContextMode bool       `json:"context_mode" db:"context_mode"`
	Status      string     `json:"status" db:"status"`
	Result      string     `json:"result,omitempty" db:"result"`
	Origin      string     `json:"origin,omitempty" db:"origin"`
	ErrorMsg    string     `json:"error_msg,omitempty" db:"error_msg"`
	WorkerID    string     `json:"worker_id,omitempty" db:"worker_id"`
	EnqueuedAt  time.Time  `json:"enqueued_at" db:"enqueued_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// JobStatus constants
const (
	JobStatusQueued  = "queued"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// JobErrorTimeout marks jobs whose backend call exceeded the configured
// per-job timeout. The distinction matters for operators, not callers.
const JobErrorTimeout = "backend call timed out"

// JobHandle is the immediate acknowledgment returned on enqueue.
// Position counts not-yet-started jobs admitted before this one; it is a
// snapshot, not a promise against concurrent enqueues.
type JobHandle struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

// JobResult is the payload published to the results exchange once a job
// reaches a terminal status.
type JobResult struct {
	JobID       string    `json:"job_id"`
	UserID      int64     `json:"user_id"`
	Status      string    `json:"status"`
	Result      string    `json:"result,omitempty"`
	Origin      string    `json:"origin,omitempty"`
	ErrorMsg    string    `json:"error_msg,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// QueueStatus is a read-only snapshot of the task queue.
type QueueStatus struct {
	PendingCount int    `json:"pending_count"`
	Jobs         []*Job `json:"jobs"`
}
