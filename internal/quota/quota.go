package quota

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/erivative/lingogate/internal/config"
	"github.com/erivative/lingogate/pkg/models"
)

// Denial reasons
const (
	ReasonQuota     = "quota"
	ReasonWhitelist = "whitelist"
)

// Decision is the outcome of an admission check. RetryAfter is only set for
// quota denials and is exact, not an estimate.
type Decision struct {
	Allowed    bool          `json:"allowed"`
	Reason     string        `json:"reason,omitempty"`
	Tier       string        `json:"tier"`
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Resolver decides whether a user's request may proceed. It owns the rate
// window state; nothing else reads or writes it.
type Resolver struct {
	windows       *WindowStore
	cfg           config.QuotaConfig
	whitelistMode atomic.Bool
}

// NewResolver creates a resolver with the whitelist-mode toggle seeded from config
func NewResolver(windows *WindowStore, cfg config.QuotaConfig) *Resolver {
	r := &Resolver{windows: windows, cfg: cfg}
	r.whitelistMode.Store(cfg.WhitelistMode)
	return r
}

// WhitelistMode reports whether whitelist mode is active
func (r *Resolver) WhitelistMode() bool {
	return r.whitelistMode.Load()
}

// SetWhitelistMode toggles whitelist mode process-wide
func (r *Resolver) SetWhitelistMode(enabled bool) {
	r.whitelistMode.Store(enabled)
}

// Admit decides whether the user's request proceeds. The whitelist check runs
// before any counting; admins and the unlimited tier bypass counting entirely.
func (r *Resolver) Admit(ctx context.Context, user *models.User) (*Decision, error) {
	now := time.Now()
	tier := user.EffectiveTier(now)

	if r.whitelistMode.Load() {
		if !user.IsAdmin && !user.Whitelisted && !user.HasActivePaidTier(now) {
			return &Decision{Allowed: false, Reason: ReasonWhitelist, Tier: tier}, nil
		}
	}

	if user.IsAdmin || tier == models.TierUnlimited {
		return &Decision{Allowed: true, Tier: tier, Limit: -1, Remaining: -1}, nil
	}

	limit := r.tierLimit(tier)
	if override, ok := user.ActiveOverride(now); ok && override > limit {
		limit = override
	}

	allowed, remaining, retryAfter, err := r.windows.Admit(ctx, user.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to check rate window: %w", err)
	}

	decision := &Decision{
		Allowed:   allowed,
		Tier:      tier,
		Limit:     limit,
		Remaining: remaining,
	}
	if !allowed {
		decision.Reason = ReasonQuota
		decision.RetryAfter = retryAfter
	}

	return decision, nil
}

// Window returns the shared window duration
func (r *Resolver) Window() time.Duration {
	return r.windows.Window()
}

func (r *Resolver) tierLimit(tier string) int {
	switch tier {
	case models.TierBasic:
		return r.cfg.BasicLimit
	case models.TierPro:
		return r.cfg.ProLimit
	default:
		return r.cfg.FreeLimit
	}
}
