package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Entity-specific errors wrap one of these so callers can
// classify a failure with errors.Is without knowing every sentinel.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrPersistence  = errors.New("persistence failure")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrInvalidDate = fmt.Errorf("%w: invalid date", ErrInvalidInput)
)

// AuxiliaryFailure reports a gamification side effect that failed after the
// triggering action had already been committed. It is never returned as the
// error of the triggering action.
type AuxiliaryFailure struct {
	Event  string
	UserID string
	Err    error
}

func (e *AuxiliaryFailure) Error() string {
	return fmt.Sprintf("gamification %s for user %s: %v", e.Event, e.UserID, e.Err)
}

func (e *AuxiliaryFailure) Unwrap() error {
	return e.Err
}

// Persistence wraps a store failure with the operation that caused it.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
