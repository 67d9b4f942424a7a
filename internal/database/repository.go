package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/erivative/lingogate/pkg/models"
)

// Repository provides database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Users

const userColumns = `user_id, username, tier, tier_expires_at, override_limit,
       override_expires_at, whitelisted, is_admin, dialect, context_mode, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Tier, &user.TierExpiresAt, &user.OverrideLimit,
		&user.OverrideExpiresAt, &user.Whitelisted, &user.IsAdmin, &user.Dialect,
		&user.ContextMode, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreateUser returns the user record, creating it on first contact.
func (r *Repository) GetOrCreateUser(ctx context.Context, userID int64, username string) (*models.User, error) {
	query := `
		INSERT INTO users (user_id, username)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET username = EXCLUDED.username
		RETURNING ` + userColumns

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, userID, username))
	if err != nil {
		return nil, fmt.Errorf("failed to get or create user: %w", err)
	}

	return user, nil
}

// GetUser retrieves a user by ID
func (r *Repository) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// UpdateUserDialect sets the user's preferred dialect
func (r *Repository) UpdateUserDialect(ctx context.Context, userID int64, dialect string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET dialect = $2 WHERE user_id = $1`, userID, dialect)
	if err != nil {
		return fmt.Errorf("failed to update dialect: %w", err)
	}
	return nil
}

// UpdateUserContextMode toggles the user's context-mode flag
func (r *Repository) UpdateUserContextMode(ctx context.Context, userID int64, enabled bool) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET context_mode = $2 WHERE user_id = $1`, userID, enabled)
	if err != nil {
		return fmt.Errorf("failed to update context mode: %w", err)
	}
	return nil
}

// GrantTier grants a tier to a user for the given number of days.
// A duration of 0 or less grants the tier without expiry.
func (r *Repository) GrantTier(ctx context.Context, userID int64, tier string, days int) error {
	var expires *time.Time
	if days > 0 {
		t := time.Now().AddDate(0, 0, days)
		expires = &t
	}

	query := `
		INSERT INTO users (user_id, tier, tier_expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET tier = EXCLUDED.tier, tier_expires_at = EXCLUDED.tier_expires_at
	`

	if _, err := r.db.Pool.Exec(ctx, query, userID, tier, expires); err != nil {
		return fmt.Errorf("failed to grant tier: %w", err)
	}
	return nil
}

// RevokeTier reverts a user to the free tier
func (r *Repository) RevokeTier(ctx context.Context, userID int64) error {
	res, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET tier = $2, tier_expires_at = NULL WHERE user_id = $1`,
		userID, models.TierFree)
	if err != nil {
		return fmt.Errorf("failed to revoke tier: %w", err)
	}
	if res.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// SetOverrideLimit sets a manual per-window limit override for a user.
// A limit of 0 clears the override.
func (r *Repository) SetOverrideLimit(ctx context.Context, userID int64, limit, days int) error {
	var expires *time.Time
	if limit > 0 && days > 0 {
		t := time.Now().AddDate(0, 0, days)
		expires = &t
	}

	res, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET override_limit = $2, override_expires_at = $3 WHERE user_id = $1`,
		userID, limit, expires)
	if err != nil {
		return fmt.Errorf("failed to set override limit: %w", err)
	}
	if res.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// SetWhitelisted adds or removes a user from the whitelist
func (r *Repository) SetWhitelisted(ctx context.Context, userID int64, whitelisted bool) error {
	query := `
		INSERT INTO users (user_id, whitelisted)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET whitelisted = EXCLUDED.whitelisted
	`
	if _, err := r.db.Pool.Exec(ctx, query, userID, whitelisted); err != nil {
		return fmt.Errorf("failed to set whitelist flag: %w", err)
	}
	return nil
}

// SetAdmin grants or removes the admin flag
func (r *Repository) SetAdmin(ctx context.Context, userID int64, isAdmin bool) error {
	query := `
		INSERT INTO users (user_id, is_admin)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET is_admin = EXCLUDED.is_admin
	`
	if _, err := r.db.Pool.Exec(ctx, query, userID, isAdmin); err != nil {
		return fmt.Errorf("failed to set admin flag: %w", err)
	}
	return nil
}

// History

// AddHistory records a user's input for context-mode translations
func (r *Repository) AddHistory(ctx context.Context, userID int64, text string) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO history (user_id, text) VALUES ($1, $2)`, userID, text)
	if err != nil {
		return fmt.Errorf("failed to add history: %w", err)
	}
	return nil
}

// GetHistory retrieves the user's most recent inputs, newest first
func (r *Repository) GetHistory(ctx context.Context, userID int64, limit int) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT text FROM history WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		texts = append(texts, text)
	}

	return texts, rows.Err()
}

// Favorites

// AddFavorite saves a text to the user's favorites. Returns false when the
// text is already saved; nothing is modified in that case.
func (r *Repository) AddFavorite(ctx context.Context, userID int64, text string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		INSERT INTO favorites (user_id, text)
		VALUES ($1, $2)
		ON CONFLICT (user_id, text) DO NOTHING`, userID, text)
	if err != nil {
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListFavorites retrieves the user's saved texts, newest first
func (r *Repository) ListFavorites(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT text FROM favorites WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		texts = append(texts, text)
	}

	return texts, rows.Err()
}
