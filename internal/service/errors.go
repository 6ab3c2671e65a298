package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped with context using %w
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrInvalidCredentials is returned when a username/password pair does not
	// match, or when the current password given for a password change is wrong.
	// Unknown usernames and wrong passwords are indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
