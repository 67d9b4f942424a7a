package database

import (
	"context"
	"fmt"
)

// Table definitions, applied idempotently at startup. Verified and cached
// translations are separate tables on purpose: precedence is a read-side
// rule, and both layers keep their own audit history.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id             BIGINT PRIMARY KEY,
		username            TEXT NOT NULL DEFAULT '',
		tier                TEXT NOT NULL DEFAULT 'free',
		tier_expires_at     TIMESTAMPTZ,
		override_limit      INT NOT NULL DEFAULT 0,
		override_expires_at TIMESTAMPTZ,
		whitelisted         BOOLEAN NOT NULL DEFAULT FALSE,
		is_admin            BOOLEAN NOT NULL DEFAULT FALSE,
		dialect             TEXT NOT NULL DEFAULT 'standard',
		context_mode        BOOLEAN NOT NULL DEFAULT TRUE,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS cache_translations (
		text        TEXT NOT NULL,
		dialect     TEXT NOT NULL DEFAULT 'standard',
		translation TEXT NOT NULL,
		hit_count   BIGINT NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_used   TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (text, dialect)
	)`,

	`CREATE TABLE IF NOT EXISTS verified_translations (
		text        TEXT NOT NULL,
		dialect     TEXT NOT NULL DEFAULT 'standard',
		translation TEXT NOT NULL,
		approved_by BIGINT NOT NULL,
		approved_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (text, dialect)
	)`,

	`CREATE TABLE IF NOT EXISTS feedback (
		id          BIGSERIAL PRIMARY KEY,
		text        TEXT NOT NULL,
		dialect     TEXT NOT NULL DEFAULT 'standard',
		generated   TEXT NOT NULL DEFAULT '',
		suggested   TEXT NOT NULL,
		user_id     BIGINT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'pending',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		reviewed_by BIGINT NOT NULL DEFAULT 0,
		reviewed_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS jobs (
		id           TEXT PRIMARY KEY,
		user_id      BIGINT NOT NULL,
		text         TEXT NOT NULL,
		dialect      TEXT NOT NULL DEFAULT 'standard',
		context_mode BOOLEAN NOT NULL DEFAULT FALSE,
		status       TEXT NOT NULL DEFAULT 'queued',
		result       TEXT NOT NULL DEFAULT '',
		origin       TEXT NOT NULL DEFAULT '',
		error_msg    TEXT NOT NULL DEFAULT '',
		worker_id    TEXT NOT NULL DEFAULT '',
		enqueued_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		started_at   TIMESTAMPTZ,
		completed_at TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS idx_jobs_status_enqueued ON jobs (status, enqueued_at)`,

	`CREATE TABLE IF NOT EXISTS history (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL,
		text       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_history_user_created ON history (user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS favorites (
		user_id    BIGINT NOT NULL,
		text       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, text)
	)`,
}

// EnsureSchema creates all tables if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
