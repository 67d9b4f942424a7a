package models

import "time"

// User represents a chat user known to the core.
// Users are created on first contact and never deleted; access is withdrawn
// by whitelist removal or tier revocation instead.
type User struct {
	ID                int64      `json:"id" db:"user_id"`
	Username          string     `json:"username,omitempty" db:"username"`
	Tier              string     `json:"tier" db:"tier"`
	TierExpiresAt     *time.Time `json:"tier_expires_at,omitempty" db:"tier_expires_at"`
	OverrideLimit     int        `json:"override_limit,omitempty" db:"override_limit"`
	OverrideExpiresAt *time.Time `json:"override_expires_at,omitempty" db:"override_expires_at"`
	Whitelisted       bool       `json:"whitelisted" db:"whitelisted"`
	IsAdmin           bool       `json:"is_admin" db:"is_admin"`
	Dialect           string     `json:"dialect" db:"dialect"`
	ContextMode       bool       `json:"context_mode" db:"context_mode"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}

// Tier constants
const (
	TierFree      = "free"
	TierBasic     = "basic"
	TierPro       = "pro"
	TierUnlimited = "unlimited"
)

// DefaultDialect is assigned to users on first contact.
const DefaultDialect = "standard"

// EffectiveTier resolves the user's tier at time now. An expired paid tier
// reverts to Free; there is no background sweep.
func (u *User) EffectiveTier(now time.Time) string {
	if u.Tier == "" || u.Tier == TierFree {
		return TierFree
	}
	if u.TierExpiresAt != nil && u.TierExpiresAt.Before(now) {
		return TierFree
	}
	return u.Tier
}

// HasActivePaidTier reports whether the user holds a non-free tier at time now.
func (u *User) HasActivePaidTier(now time.Time) bool {
	return u.EffectiveTier(now) != TierFree
}

// ActiveOverride returns the manual limit override if one is set and unexpired.
func (u *User) ActiveOverride(now time.Time) (int, bool) {
	if u.OverrideLimit <= 0 {
		return 0, false
	}
	if u.OverrideExpiresAt != nil && u.OverrideExpiresAt.Before(now) {
		return 0, false
	}
	return u.OverrideLimit, true
}
