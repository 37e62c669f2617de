// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Ledger error taxonomy. Every error returned by the store or the ledger
// wraps exactly one of these, so callers can branch with errors.Is.
var (
	// ErrNotFound reports an identity lookup miss.
	ErrNotFound = errors.New("not found")
	// ErrValidation reports a business-rule violation, such as a transfer
	// from an account to itself or a non-positive transfer amount.
	ErrValidation = errors.New("validation failed")
	// ErrIntegrity reports a write that would break a relationship, such as
	// a transaction posted against an account that does not exist.
	ErrIntegrity = errors.New("integrity violation")
	// ErrStore reports a failure of the underlying persistence layer.
	// It is never retried: writes are durable or rejected.
	ErrStore = errors.New("store failure")
)

// Configuration errors.
var (
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// Describe maps an error onto a short, user-facing explanation of its kind.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "no such record"
	case errors.Is(err, ErrValidation):
		return "request rejected"
	case errors.Is(err, ErrIntegrity):
		return "would break ledger consistency"
	case errors.Is(err, ErrStore):
		return "database failure"
	default:
		return "unexpected error"
	}
}
