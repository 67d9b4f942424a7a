package models

import "time"

// AnswerEntry is one stored translation, keyed by the normalized
// (source text, dialect) pair. Verified entries always shadow cached ones
// for the same key.
type AnswerEntry struct {
	Text        string     `json:"text" db:"text"`
	Dialect     string     `json:"dialect" db:"dialect"`
	Translation string     `json:"translation" db:"translation"`
	Origin      string     `json:"origin" db:"origin"`
	HitCount    int64      `json:"hit_count" db:"hit_count"`
	LastUsed    time.Time  `json:"last_used" db:"last_used"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ApprovedBy  int64      `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty" db:"approved_at"`
}

// Answer origins, in precedence order.
const (
	OriginVerified = "verified"
	OriginCached   = "cached"
	OriginFallback = "fallback"
)

// AnswerStats is a read-only snapshot of the answer store.
type AnswerStats struct {
	CacheEntries    int64   `json:"cache_entries"`
	CacheHits       int64   `json:"cache_hits"`
	HitRate         float64 `json:"hit_rate"`
	VerifiedEntries int64   `json:"verified_entries"`
}
