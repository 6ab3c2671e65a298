package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrTaskLocked is returned when a task can no longer be modified or
	// deleted because it has expired.
	ErrTaskLocked = errors.New("task is locked")

	// ErrInvalidTransition is returned when a requested status change is
	// not permitted, such as a user trying to expire a task directly.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDeadlinePassed is returned when deleting a task whose deadline
	// has already been reached.
	ErrDeadlinePassed = errors.New("task deadline has passed")
)
