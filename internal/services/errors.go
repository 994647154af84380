// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to callers.
var (
	// ErrInsufficientBalance: a withdrawal exceeds the current ledger
	// balance. No state changes.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNotFound wraps record lookups that handlers map to 404.
	ErrNotFound = errors.New("record not found")
)

// ValidationError rejects bad user input synchronously; nothing is persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
	}
	return "validation: " + e.Message
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError marks a uniqueness race during create-if-absent whose
// recovery refetch also failed. The loser normally recovers silently by
// reading the winner's row; this surfaces only when that read fails too.
type ConflictError struct {
	Entity string
	Err    error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict creating %s: %v", e.Entity, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// CapacityError: a shared license has no free seats for a new user.
type CapacityError struct {
	CurrentUsers int
	MaxUsers     int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("license limit reached: %d/%d seats in use", e.CurrentUsers, e.MaxUsers)
}

// ExternalProviderError: a payment-provider call failed or the session is not
// in a usable state. The purchase stays non-materialized and the caller may
// retry.
type ExternalProviderError struct {
	Op  string
	Err error
}

func (e *ExternalProviderError) Error() string {
	return fmt.Sprintf("payment provider: %s: %v", e.Op, e.Err)
}

func (e *ExternalProviderError) Unwrap() error { return e.Err }

// IntegrityError is fatal: royalty components that do not sum to the price, a
// ledger balance inconsistent with its predecessor, or checkout metadata
// missing required fields. The operation aborts without partial writes.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return "integrity violation: " + e.Reason
}

func newIntegrityError(format string, args ...interface{}) *IntegrityError {
	return &IntegrityError{Reason: fmt.Sprintf(format, args...)}
}
