package quota

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erivative/lingogate/internal/config"
	"github.com/erivative/lingogate/pkg/models"
)

func setupResolver(t *testing.T, window time.Duration, cfg config.QuotaConfig) (*Resolver, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg.Window = window
	return NewResolver(NewWindowStore(client, window), cfg), mr
}

func defaultQuotaConfig() config.QuotaConfig {
	return config.QuotaConfig{
		FreeLimit:  14,
		BasicLimit: 50,
		ProLimit:   200,
	}
}

func TestAdmit_FreeTierScenario(t *testing.T) {
	// 15 requests against the free limit of 14: 1-14 admitted, 15 denied
	// with a positive retry-after no longer than the window.
	r, _ := setupResolver(t, time.Hour, defaultQuotaConfig())
	ctx := context.Background()
	user := &models.User{ID: 1, Tier: models.TierFree}

	for i := 0; i < 14; i++ {
		d, err := r.Admit(ctx, user)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 14-i-1, d.Remaining)
	}

	d, err := r.Admit(ctx, user)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonQuota, d.Reason)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Hour)
}

func TestAdmit_RetryAfterMatchesOldestExpiry(t *testing.T) {
	// A denied request's retry-after is the exact time until the oldest
	// in-window request leaves the window, not a rounded-up window length.
	window := 2 * time.Second
	r, _ := setupResolver(t, window, config.QuotaConfig{FreeLimit: 1})
	ctx := context.Background()
	user := &models.User{ID: 6, Tier: models.TierFree}

	first := time.Now()
	d, err := r.Admit(ctx, user)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	time.Sleep(500 * time.Millisecond)

	d, err = r.Admit(ctx, user)
	require.NoError(t, err)
	require.False(t, d.Allowed)

	expected := time.Until(first.Add(window))
	assert.InDelta(t, expected.Milliseconds(), d.RetryAfter.Milliseconds(), 60)
}

func TestAdmit_ZeroLimitDeniesCleanly(t *testing.T) {
	// A limit of zero denies every request without a single window entry;
	// the retry-after falls back to the full window length.
	r, _ := setupResolver(t, time.Hour, config.QuotaConfig{FreeLimit: 0})
	ctx := context.Background()

	d, err := r.Admit(ctx, &models.User{ID: 8, Tier: models.TierFree})
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonQuota, d.Reason)
	assert.Equal(t, time.Hour, d.RetryAfter)
}

func TestAdmit_WindowExpiry(t *testing.T) {
	r, _ := setupResolver(t, 300*time.Millisecond, config.QuotaConfig{FreeLimit: 2})
	ctx := context.Background()
	user := &models.User{ID: 7, Tier: models.TierFree}

	for i := 0; i < 2; i++ {
		d, err := r.Admit(ctx, user)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}

	d, err := r.Admit(ctx, user)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.LessOrEqual(t, d.RetryAfter, 300*time.Millisecond)

	// Denied request records nothing; once the window slides past the
	// oldest timestamps the user gets a fresh allocation.
	time.Sleep(350 * time.Millisecond)

	d, err = r.Admit(ctx, user)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestAdmit_UnlimitedBypassesCounting(t *testing.T) {
	r, _ := setupResolver(t, time.Hour, config.QuotaConfig{FreeLimit: 1})
	ctx := context.Background()
	user := &models.User{ID: 2, Tier: models.TierUnlimited}

	for i := 0; i < 50; i++ {
		d, err := r.Admit(ctx, user)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
}

func TestAdmit_AdminBypassesCounting(t *testing.T) {
	r, _ := setupResolver(t, time.Hour, config.QuotaConfig{FreeLimit: 1})
	ctx := context.Background()
	user := &models.User{ID: 3, Tier: models.TierFree, IsAdmin: true}

	for i := 0; i < 10; i++ {
		d, err := r.Admit(ctx, user)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
}

func TestAdmit_ExpiredTierRevertsToFree(t *testing.T) {
	r, _ := setupResolver(t, time.Hour, config.QuotaConfig{FreeLimit: 2, ProLimit: 200})
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	user := &models.User{ID: 4, Tier: models.TierPro, TierExpiresAt: &past}

	for i := 0; i < 2; i++ {
		d, err := r.Admit(ctx, user)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, models.TierFree, d.Tier)
	}

	d, err := r.Admit(ctx, user)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 2, d.Limit)
}

func TestAdmit_OverrideRaisesLimit(t *testing.T) {
	r, _ := setupResolver(t, time.Hour, config.QuotaConfig{FreeLimit: 2})
	ctx := context.Background()

	future := time.Now().Add(24 * time.Hour)
	user := &models.User{ID: 5, Tier: models.TierFree, OverrideLimit: 4, OverrideExpiresAt: &future}

	for i := 0; i < 4; i++ {
		d, err := r.Admit(ctx, user)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should be admitted under override", i+1)
	}

	d, err := r.Admit(ctx, user)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 4, d.Limit)
}

func TestAdmit_WhitelistMode(t *testing.T) {
	cfg := defaultQuotaConfig()
	cfg.WhitelistMode = true
	r, _ := setupResolver(t, time.Hour, cfg)
	ctx := context.Background()

	// Plain free user is denied outright, before any counting.
	d, err := r.Admit(ctx, &models.User{ID: 10, Tier: models.TierFree})
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonWhitelist, d.Reason)
	assert.Equal(t, time.Duration(0), d.RetryAfter)

	// Whitelisted, admin, and active paid users pass the gate.
	d, err = r.Admit(ctx, &models.User{ID: 11, Tier: models.TierFree, Whitelisted: true})
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = r.Admit(ctx, &models.User{ID: 12, IsAdmin: true})
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = r.Admit(ctx, &models.User{ID: 13, Tier: models.TierBasic})
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	// Toggling the mode off readmits everyone.
	r.SetWhitelistMode(false)
	d, err = r.Admit(ctx, &models.User{ID: 10, Tier: models.TierFree})
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestAdmit_UsersAreIndependent(t *testing.T) {
	r, _ := setupResolver(t, time.Hour, config.QuotaConfig{FreeLimit: 1})
	ctx := context.Background()

	d, err := r.Admit(ctx, &models.User{ID: 20, Tier: models.TierFree})
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = r.Admit(ctx, &models.User{ID: 20, Tier: models.TierFree})
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	// A different user has a fresh window.
	d, err = r.Admit(ctx, &models.User{ID: 21, Tier: models.TierFree})
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
