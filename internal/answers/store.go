package answers

import (
	"context"
	"fmt"

	"github.com/erivative/lingogate/internal/logging"
	"github.com/erivative/lingogate/internal/metrics"
	"github.com/erivative/lingogate/pkg/models"
)

// Repository defines the persistence operations the store needs. Each
// mutation is a single atomic read-modify-write keyed by normalized key.
type Repository interface {
	LookupVerified(ctx context.Context, text, dialect string) (*models.AnswerEntry, error)
	LookupCached(ctx context.Context, text, dialect string) (*models.AnswerEntry, error)
	UpsertCacheEntry(ctx context.Context, text, dialect, translation string) (*models.AnswerEntry, error)
	CreateFeedback(ctx context.Context, item *models.FeedbackItem) error
	ListPendingFeedback(ctx context.Context, limit int) ([]*models.FeedbackItem, error)
	ResolveFeedback(ctx context.Context, id, admin int64, status, finalText string) (*models.FeedbackItem, error)
	AnswerStats(ctx context.Context) (*models.AnswerStats, error)
}

// Store is the two-layer answer store: community-verified entries always win
// over reuse-cache entries for the same key. The cached entry is retained
// after verification for its hit statistics; precedence is enforced on read.
type Store struct {
	repo   Repository
	logger *logging.Logger
}

// NewStore creates an answer store
func NewStore(repo Repository, logger *logging.Logger) *Store {
	return &Store{repo: repo, logger: logger}
}

// Lookup resolves a key against the verified layer first, then the cache.
// A cache hit bumps the entry's hit count; a verified hit does not consult
// the cache at all. Returns nil on miss.
func (s *Store) Lookup(ctx context.Context, text, dialect string) (*models.AnswerEntry, error) {
	key := Normalize(text)

	verified, err := s.repo.LookupVerified(ctx, key, dialect)
	if err != nil {
		return nil, fmt.Errorf("verified lookup: %w", err)
	}
	if verified != nil {
		metrics.RecordAnswerLookup(models.OriginVerified)
		s.logger.LogAnswerLookup(dialect, models.OriginVerified, true)
		return verified, nil
	}

	cached, err := s.repo.LookupCached(ctx, key, dialect)
	if err != nil {
		return nil, fmt.Errorf("cached lookup: %w", err)
	}
	if cached != nil {
		metrics.RecordAnswerLookup(models.OriginCached)
		s.logger.LogAnswerLookup(dialect, models.OriginCached, true)
		return cached, nil
	}

	metrics.RecordAnswerLookup("miss")
	s.logger.LogAnswerLookup(dialect, "", false)
	return nil, nil
}

// LookupVerified consults only the verified layer. Context-mode requests use
// this: their results depend on per-user history, so the reuse cache does not
// apply, but a community-verified answer still wins.
func (s *Store) LookupVerified(ctx context.Context, text, dialect string) (*models.AnswerEntry, error) {
	verified, err := s.repo.LookupVerified(ctx, Normalize(text), dialect)
	if err != nil {
		return nil, fmt.Errorf("verified lookup: %w", err)
	}
	if verified != nil {
		metrics.RecordAnswerLookup(models.OriginVerified)
		s.logger.LogAnswerLookup(dialect, models.OriginVerified, true)
	}
	return verified, nil
}

// InsertCache stores a computed translation under the normalized key.
// Re-inserting identical text counts as a hit; differing text replaces the
// entry and resets its count.
func (s *Store) InsertCache(ctx context.Context, text, dialect, translation string) (*models.AnswerEntry, error) {
	entry, err := s.repo.UpsertCacheEntry(ctx, Normalize(text), dialect, translation)
	if err != nil {
		return nil, fmt.Errorf("insert cache: %w", err)
	}
	return entry, nil
}

// RecordFeedback files a user-proposed correction for admin review
func (s *Store) RecordFeedback(ctx context.Context, text, dialect, generated, suggested string, userID int64) (*models.FeedbackItem, error) {
	item := &models.FeedbackItem{
		Text:      Normalize(text),
		Dialect:   dialect,
		Generated: generated,
		Suggested: suggested,
		UserID:    userID,
	}

	if err := s.repo.CreateFeedback(ctx, item); err != nil {
		return nil, fmt.Errorf("record feedback: %w", err)
	}

	metrics.RecordFeedback("recorded")
	return item, nil
}

// PendingFeedback lists unreviewed feedback items, oldest first
func (s *Store) PendingFeedback(ctx context.Context, limit int) ([]*models.FeedbackItem, error) {
	return s.repo.ListPendingFeedback(ctx, limit)
}

// Approve promotes a pending feedback item's key to a verified entry holding
// finalText (usually the suggestion, possibly admin-edited). A repeat call
// fails with ErrInvalidFeedbackState and leaves the verified entry untouched.
func (s *Store) Approve(ctx context.Context, feedbackID, admin int64, finalText string) (*models.FeedbackItem, error) {
	item, err := s.repo.ResolveFeedback(ctx, feedbackID, admin, models.FeedbackStatusApproved, finalText)
	if err != nil {
		return nil, err
	}

	metrics.RecordFeedback("approved")
	s.logger.WithUserID(admin).Infof("Feedback %d approved, key %q verified", feedbackID, item.Text)
	return item, nil
}

// Reject marks a pending feedback item rejected without touching the store
func (s *Store) Reject(ctx context.Context, feedbackID, admin int64) (*models.FeedbackItem, error) {
	item, err := s.repo.ResolveFeedback(ctx, feedbackID, admin, models.FeedbackStatusRejected, "")
	if err != nil {
		return nil, err
	}

	metrics.RecordFeedback("rejected")
	return item, nil
}

// Stats returns a read-only snapshot of the store
func (s *Store) Stats(ctx context.Context) (*models.AnswerStats, error) {
	return s.repo.AnswerStats(ctx)
}
