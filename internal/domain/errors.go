// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidConfiguration is returned when review settings cannot be used
	// for scheduling (empty interval table, non-positive daily limit, unknown
	// timezone). It is a load-time failure, never a per-review one.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrAlreadyReviewed is returned when an initial review is requested for an
	// item that already has an active review point.
	ErrAlreadyReviewed = errors.New("item already has an active review point")

	// ErrInvalidState is returned when an operation is not permitted in the
	// review point's current state, e.g. recording an outcome on a removed point.
	ErrInvalidState = errors.New("invalid review point state")

	// ErrInvalidReviewOutcome is returned when a review outcome is not valid.
	ErrInvalidReviewOutcome = errors.New("invalid review outcome")
)

// ConfigurationError describes which setting made a configuration unusable.
type ConfigurationError struct {
	Field  string
	Reason string
}

// Error implements the error interface for ConfigurationError.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfiguration, e.Field, e.Reason)
}

// Unwrap returns ErrInvalidConfiguration so callers can use errors.Is.
func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// NewConfigurationError returns a ConfigurationError for the given field.
func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

// StateError reports a caller-side logic fault against a specific review point.
// It wraps ErrAlreadyReviewed or ErrInvalidState.
type StateError struct {
	Op     string
	UserID uuid.UUID
	ItemID uuid.UUID
	Err    error
}

// Error implements the error interface for StateError.
func (e *StateError) Error() string {
	return fmt.Sprintf("%s (user %s, item %s): %v", e.Op, e.UserID, e.ItemID, e.Err)
}

// Unwrap returns the wrapped sentinel error.
func (e *StateError) Unwrap() error {
	return e.Err
}

// NewStateError returns a StateError for the given operation and review point.
func NewStateError(op string, userID, itemID uuid.UUID, err error) *StateError {
	return &StateError{Op: op, UserID: userID, ItemID: itemID, Err: err}
}
