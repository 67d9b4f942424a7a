package models

import "errors"

// Domain errors shared across store implementations.
var (
	// ErrUserNotFound is returned for lookups of users that never made contact.
	ErrUserNotFound = errors.New("user not found")

	// ErrJobNotFound is returned for status queries on unknown job ids.
	ErrJobNotFound = errors.New("job not found")

	// ErrFeedbackNotFound is returned for review actions on unknown feedback ids.
	ErrFeedbackNotFound = errors.New("feedback not found")

	// ErrInvalidFeedbackState is returned when approving or rejecting a
	// feedback item that is already terminal. The stored state is untouched.
	ErrInvalidFeedbackState = errors.New("feedback already reviewed")

	// ErrQueueFull is returned when the pending job count has reached the
	// configured bound.
	ErrQueueFull = errors.New("translation queue is full")
)
