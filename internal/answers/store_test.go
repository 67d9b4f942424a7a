package answers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erivative/lingogate/internal/logging"
	"github.com/erivative/lingogate/pkg/models"
)

type fakeRepo struct {
	verified map[string]*models.AnswerEntry
	cached   map[string]*models.AnswerEntry
	feedback map[int64]*models.FeedbackItem
	nextID   int64
	hits     int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		verified: make(map[string]*models.AnswerEntry),
		cached:   make(map[string]*models.AnswerEntry),
		feedback: make(map[int64]*models.FeedbackItem),
		nextID:   1,
	}
}

func answerKey(text, dialect string) string {
	return text + "\x00" + dialect
}

func (f *fakeRepo) LookupVerified(_ context.Context, text, dialect string) (*models.AnswerEntry, error) {
	entry, ok := f.verified[answerKey(text, dialect)]
	if !ok {
		return nil, nil
	}
	cp := *entry
	return &cp, nil
}

func (f *fakeRepo) LookupCached(_ context.Context, text, dialect string) (*models.AnswerEntry, error) {
	entry, ok := f.cached[answerKey(text, dialect)]
	if !ok {
		return nil, nil
	}
	entry.HitCount++
	entry.LastUsed = time.Now()
	f.hits++
	cp := *entry
	return &cp, nil
}

func (f *fakeRepo) UpsertCacheEntry(_ context.Context, text, dialect, translation string) (*models.AnswerEntry, error) {
	key := answerKey(text, dialect)
	if existing, ok := f.cached[key]; ok {
		if existing.Translation == translation {
			existing.HitCount++
		} else {
			existing.Translation = translation
			existing.HitCount = 0
		}
		existing.LastUsed = time.Now()
		cp := *existing
		return &cp, nil
	}

	entry := &models.AnswerEntry{
		Text:        text,
		Dialect:     dialect,
		Translation: translation,
		Origin:      models.OriginCached,
		HitCount:    0,
		LastUsed:    time.Now(),
		CreatedAt:   time.Now(),
	}
	f.cached[key] = entry
	cp := *entry
	return &cp, nil
}

func (f *fakeRepo) CreateFeedback(_ context.Context, item *models.FeedbackItem) error {
	item.ID = f.nextID
	f.nextID++
	item.Status = models.FeedbackStatusPending
	item.CreatedAt = time.Now()
	cp := *item
	f.feedback[item.ID] = &cp
	return nil
}

func (f *fakeRepo) ListPendingFeedback(_ context.Context, limit int) ([]*models.FeedbackItem, error) {
	var out []*models.FeedbackItem
	for id := int64(1); id < f.nextID && len(out) < limit; id++ {
		if item, ok := f.feedback[id]; ok && item.Status == models.FeedbackStatusPending {
			cp := *item
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) ResolveFeedback(_ context.Context, id, admin int64, status, finalText string) (*models.FeedbackItem, error) {
	item, ok := f.feedback[id]
	if !ok {
		return nil, models.ErrFeedbackNotFound
	}
	if item.Status != models.FeedbackStatusPending {
		return nil, models.ErrInvalidFeedbackState
	}

	now := time.Now()
	item.Status = status
	item.ReviewedBy = admin
	item.ReviewedAt = &now

	if status == models.FeedbackStatusApproved {
		f.verified[answerKey(item.Text, item.Dialect)] = &models.AnswerEntry{
			Text:        item.Text,
			Dialect:     item.Dialect,
			Translation: finalText,
			Origin:      models.OriginVerified,
			CreatedAt:   now,
			ApprovedBy:  admin,
			ApprovedAt:  &now,
		}
	}

	cp := *item
	return &cp, nil
}

func (f *fakeRepo) AnswerStats(_ context.Context) (*models.AnswerStats, error) {
	stats := &models.AnswerStats{
		CacheEntries:    int64(len(f.cached)),
		CacheHits:       f.hits,
		VerifiedEntries: int64(len(f.verified)),
	}
	if total := stats.CacheEntries + stats.CacheHits; total > 0 {
		stats.HitRate = float64(stats.CacheHits) / float64(total)
	}
	return stats, nil
}

func testStore(t *testing.T) (*Store, *fakeRepo) {
	t.Helper()
	logger, err := logging.NewDefaultLogger()
	require.NoError(t, err)
	repo := newFakeRepo()
	return NewStore(repo, logger), repo
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello world"},
		{"  what   time is it?  ", "what time is it"},
		{"REALLY?!", "really"},
		{"done...", "done"},
		{"a  b\tc\nd", "a b c d"},
		{"", ""},
		{"?!.", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLookup_MissThenCacheRoundTrip(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	entry, err := store.Lookup(ctx, "Hello World", "standard")
	require.NoError(t, err)
	assert.Nil(t, entry)

	inserted, err := store.InsertCache(ctx, "Hello World", "standard", "bonjour le monde")
	require.NoError(t, err)
	assert.Equal(t, int64(0), inserted.HitCount)

	// Differently-cased, differently-spaced input resolves to the same key
	// and the hit bumps the count.
	entry, err = store.Lookup(ctx, "  hello   WORLD?", "standard")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "bonjour le monde", entry.Translation)
	assert.Equal(t, models.OriginCached, entry.Origin)
	assert.Equal(t, int64(1), entry.HitCount)
}

func TestInsertCache_RepeatSemantics(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	first, err := store.InsertCache(ctx, "hello", "standard", "bonjour")
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.HitCount)

	// Identical re-insert counts as a hit.
	same, err := store.InsertCache(ctx, "hello", "standard", "bonjour")
	require.NoError(t, err)
	assert.Equal(t, int64(1), same.HitCount)

	// A different translation replaces the entry and resets the count.
	replaced, err := store.InsertCache(ctx, "hello", "standard", "salut")
	require.NoError(t, err)
	assert.Equal(t, "salut", replaced.Translation)
	assert.Equal(t, int64(0), replaced.HitCount)
}

func TestLookup_VerifiedWinsOverCached(t *testing.T) {
	store, repo := testStore(t)
	ctx := context.Background()

	_, err := store.InsertCache(ctx, "hello", "standard", "machine version")
	require.NoError(t, err)

	repo.verified[answerKey("hello", "standard")] = &models.AnswerEntry{
		Text:        "hello",
		Dialect:     "standard",
		Translation: "human version",
		Origin:      models.OriginVerified,
	}

	entry, err := store.Lookup(ctx, "hello", "standard")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "human version", entry.Translation)
	assert.Equal(t, models.OriginVerified, entry.Origin)

	// Verified hits leave the cached entry's count alone.
	assert.Equal(t, int64(0), repo.cached[answerKey("hello", "standard")].HitCount)
}

func TestLookup_DialectsAreSeparate(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	_, err := store.InsertCache(ctx, "hello", "standard", "bonjour")
	require.NoError(t, err)

	entry, err := store.Lookup(ctx, "hello", "quebecois")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestFeedbackApprovalFlow(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	item, err := store.RecordFeedback(ctx, "Hello World", "standard", "machine version", "better version", 42)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackStatusPending, item.Status)
	assert.Equal(t, "hello world", item.Text)

	pending, err := store.PendingFeedback(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	resolved, err := store.Approve(ctx, item.ID, 7, "better version")
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackStatusApproved, resolved.Status)
	assert.Equal(t, int64(7), resolved.ReviewedBy)

	// The approved translation is now served from the verified layer.
	entry, err := store.Lookup(ctx, "hello world", "standard")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "better version", entry.Translation)
	assert.Equal(t, models.OriginVerified, entry.Origin)

	pending, err = store.PendingFeedback(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestFeedbackDoubleResolution(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	item, err := store.RecordFeedback(ctx, "hello", "standard", "a", "b", 42)
	require.NoError(t, err)

	_, err = store.Reject(ctx, item.ID, 7)
	require.NoError(t, err)

	_, err = store.Approve(ctx, item.ID, 7, "b")
	assert.ErrorIs(t, err, models.ErrInvalidFeedbackState)

	_, err = store.Approve(ctx, 999, 7, "b")
	assert.ErrorIs(t, err, models.ErrFeedbackNotFound)
}

func TestRejectDoesNotVerify(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	item, err := store.RecordFeedback(ctx, "hello", "standard", "a", "b", 42)
	require.NoError(t, err)

	resolved, err := store.Reject(ctx, item.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackStatusRejected, resolved.Status)

	entry, err := store.Lookup(ctx, "hello", "standard")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestStats(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	_, err := store.InsertCache(ctx, "one", "standard", "un")
	require.NoError(t, err)
	_, err = store.InsertCache(ctx, "two", "standard", "deux")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = store.Lookup(ctx, "one", "standard")
		require.NoError(t, err)
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.CacheEntries)
	assert.Equal(t, int64(2), stats.CacheHits)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)
}
