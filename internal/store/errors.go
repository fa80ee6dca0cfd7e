package store

import (
	"errors"
	"fmt"
)

// Failure causes. Store actions never return them; they are logged, turned
// into notices and exposed by the pure transitions for tests.
var (
	// ErrNotFound means no account matches the email.
	ErrNotFound = errors.New("account not found")
	// ErrInvalidCredentials means the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateAccount means the email is already registered.
	ErrDuplicateAccount = errors.New("account already exists")
	// ErrInvalidInput means an argument is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized means the action needs an active session.
	ErrUnauthorized = errors.New("not logged in")
	// ErrNetworkFailure wraps every remote call error.
	ErrNetworkFailure = errors.New("network failure")
	// ErrValidation marks a persisted snapshot that could not be restored.
	ErrValidation = errors.New("snapshot validation failed")
)

// errStaleSession aborts a commit whose session ended while it was in flight.
var errStaleSession = errors.New("session changed")

func networkFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrNetworkFailure, err)
}
