// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Client error taxonomy. Every failure surfaced by the session manager, the
// synchronizer and the orchestrator wraps exactly one of these.
var (
	ErrWalletUnavailable  = errors.New("wallet unavailable")
	ErrUserRejected       = errors.New("request rejected by user")
	ErrValidation         = errors.New("validation failed")
	ErrSyncFailure        = errors.New("could not load listings")
	ErrTransactionFailure = errors.New("transaction failed")

	// Storage errors.
	ErrNotFound = errors.New("not found")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Kind names a class of the error taxonomy.
type Kind string

// Error kinds, in the order Classify checks them.
const (
	KindNone              Kind = ""
	KindValidation        Kind = "validation"
	KindWalletUnavailable Kind = "wallet_unavailable"
	KindUserRejected      Kind = "user_rejected"
	KindSync              Kind = "sync_failure"
	KindTransaction       Kind = "transaction_failure"
	KindUnknown           Kind = "unknown"
)

// Classify maps err onto the taxonomy.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrWalletUnavailable):
		return KindWalletUnavailable
	case errors.Is(err, ErrUserRejected):
		return KindUserRejected
	case errors.Is(err, ErrSyncFailure):
		return KindSync
	case errors.Is(err, ErrTransactionFailure):
		return KindTransaction
	default:
		return KindUnknown
	}
}

// ValidationError describes invalid user input.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a validation error for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// LedgerError carries the message reported by the ledger or wallet for a failed call.
type LedgerError struct {
	Err     error
	Message string
}

func (e *LedgerError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" || e.Message == e.Err.Error() {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

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

// UserMessage picks the text to show for err: the ledger's own message when one
// was reported, then a validation reason or UserError text, then fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var ledgerErr *LedgerError
	if errors.As(err, &ledgerErr) && ledgerErr.Message != "" {
		return ledgerErr.Message
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}

	var userErr *UserError
	if errors.As(err, &userErr) && userErr.UserMessage != "" {
		return userErr.UserMessage
	}

	return fallback
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
