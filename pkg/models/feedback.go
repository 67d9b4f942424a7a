package models

import "time"

// FeedbackItem is a user-flagged correction for a stored translation.
// Items are terminal once approved or rejected; approval promotes the
// proposed text (or an admin-edited version) to a verified entry.
type FeedbackItem struct {
	ID            int64      `json:"id" db:"id"`
	Text          string     `json:"text" db:"text"`
	Dialect       string     `json:"dialect" db:"dialect"`
	Generated     string     `json:"generated" db:"generated"`
	Suggested     string     `json:"suggested" db:"suggested"`
	UserID        int64      `json:"user_id" db:"user_id"`
	Status        string     `json:"status" db:"status"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	ReviewedBy    int64      `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
}

// Feedback statuses
const (
	FeedbackStatusPending  = "pending"
	FeedbackStatusApproved = "approved"
	FeedbackStatusRejected = "rejected"
)
