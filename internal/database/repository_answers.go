package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/erivative/lingogate/pkg/models"
)

// Answer store persistence. Hit-count updates are single atomic statements
// keyed by (text, dialect) so parallel worker completions never lose counts.

// LookupVerified retrieves the verified entry for a key, or nil on miss
func (r *Repository) LookupVerified(ctx context.Context, text, dialect string) (*models.AnswerEntry, error) {
	var entry models.AnswerEntry
	entry.Origin = models.OriginVerified

	query := `
		SELECT text, dialect, translation, approved_by, approved_at
		FROM verified_translations
		WHERE text = $1 AND dialect = $2
	`

	err := r.db.Pool.QueryRow(ctx, query, text, dialect).Scan(
		&entry.Text, &entry.Dialect, &entry.Translation, &entry.ApprovedBy, &entry.ApprovedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup verified entry: %w", err)
	}

	return &entry, nil
}

// LookupCached retrieves the cached entry for a key and bumps its hit count
// in the same statement. Returns nil on miss.
func (r *Repository) LookupCached(ctx context.Context, text, dialect string) (*models.AnswerEntry, error) {
	var entry models.AnswerEntry
	entry.Origin = models.OriginCached

	query := `
		UPDATE cache_translations
		SET hit_count = hit_count + 1, last_used = now()
		WHERE text = $1 AND dialect = $2
		RETURNING text, dialect, translation, hit_count, created_at, last_used
	`

	err := r.db.Pool.QueryRow(ctx, query, text, dialect).Scan(
		&entry.Text, &entry.Dialect, &entry.Translation, &entry.HitCount,
		&entry.CreatedAt, &entry.LastUsed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup cached entry: %w", err)
	}

	return &entry, nil
}

// UpsertCacheEntry stores a computed translation. A fresh key starts at hit
// count 0; re-inserting identical text counts as a hit; differing text
// replaces the entry and resets the count.
func (r *Repository) UpsertCacheEntry(ctx context.Context, text, dialect, translation string) (*models.AnswerEntry, error) {
	var entry models.AnswerEntry
	entry.Origin = models.OriginCached

	query := `
		INSERT INTO cache_translations (text, dialect, translation)
		VALUES ($1, $2, $3)
		ON CONFLICT (text, dialect) DO UPDATE SET
			hit_count = CASE
				WHEN cache_translations.translation = EXCLUDED.translation
				THEN cache_translations.hit_count + 1
				ELSE 0
			END,
			translation = EXCLUDED.translation,
			last_used = now()
		RETURNING text, dialect, translation, hit_count, created_at, last_used
	`

	err := r.db.Pool.QueryRow(ctx, query, text, dialect, translation).Scan(
		&entry.Text, &entry.Dialect, &entry.Translation, &entry.HitCount,
		&entry.CreatedAt, &entry.LastUsed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert cache entry: %w", err)
	}

	return &entry, nil
}

// AnswerStats returns aggregate cache statistics
func (r *Repository) AnswerStats(ctx context.Context) (*models.AnswerStats, error) {
	var stats models.AnswerStats

	err := r.db.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM cache_translations),
			(SELECT COALESCE(SUM(hit_count), 0) FROM cache_translations),
			(SELECT COUNT(*) FROM verified_translations)
	`).Scan(&stats.CacheEntries, &stats.CacheHits, &stats.VerifiedEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to get answer stats: %w", err)
	}

	if total := stats.CacheEntries + stats.CacheHits; total > 0 {
		stats.HitRate = float64(stats.CacheHits) / float64(total)
	}

	return &stats, nil
}

// Feedback

const feedbackColumns = `id, text, dialect, generated, suggested, user_id, status,
       created_at, reviewed_by, reviewed_at`

func scanFeedback(row pgx.Row) (*models.FeedbackItem, error) {
	var item models.FeedbackItem
	err := row.Scan(
		&item.ID, &item.Text, &item.Dialect, &item.Generated, &item.Suggested,
		&item.UserID, &item.Status, &item.CreatedAt, &item.ReviewedBy, &item.ReviewedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateFeedback records a user-proposed correction for review
func (r *Repository) CreateFeedback(ctx context.Context, item *models.FeedbackItem) error {
	query := `
		INSERT INTO feedback (text, dialect, generated, suggested, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		item.Text, item.Dialect, item.Generated, item.Suggested, item.UserID,
	).Scan(&item.ID, &item.Status, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}

	return nil
}

// ListPendingFeedback retrieves pending feedback items, oldest first
func (r *Repository) ListPendingFeedback(ctx context.Context, limit int) ([]*models.FeedbackItem, error) {
	query := `SELECT ` + feedbackColumns + `
		FROM feedback
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending feedback: %w", err)
	}
	defer rows.Close()

	var items []*models.FeedbackItem
	for rows.Next() {
		item, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// ResolveFeedback flips a pending feedback item to a terminal status and, on
// approval, promotes finalText to the verified entry for the item's key.
// Both writes happen in one transaction; a second resolution attempt fails
// with ErrInvalidFeedbackState and mutates nothing.
func (r *Repository) ResolveFeedback(ctx context.Context, id int64, admin int64, status, finalText string) (*models.FeedbackItem, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE feedback
		SET status = $2, reviewed_by = $3, reviewed_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + feedbackColumns

	item, err := scanFeedback(tx.QueryRow(ctx, query, id, status, admin))
	if errors.Is(err, pgx.ErrNoRows) {
		// Either unknown or already terminal; distinguish for the caller.
		var exists bool
		if err := r.db.Pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM feedback WHERE id = $1)`, id).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check feedback: %w", err)
		}
		if !exists {
			return nil, models.ErrFeedbackNotFound
		}
		return nil, models.ErrInvalidFeedbackState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve feedback: %w", err)
	}

	if status == models.FeedbackStatusApproved {
		upsert := `
			INSERT INTO verified_translations (text, dialect, translation, approved_by)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (text, dialect) DO UPDATE SET
				translation = EXCLUDED.translation,
				approved_by = EXCLUDED.approved_by,
				approved_at = now()
		`
		if _, err := tx.Exec(ctx, upsert, item.Text, item.Dialect, finalText, admin); err != nil {
			return nil, fmt.Errorf("failed to promote verified entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit feedback resolution: %w", err)
	}

	return item, nil
}
