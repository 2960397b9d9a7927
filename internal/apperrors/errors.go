package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInternal indicates an unexpected failure inside the storage layer.
var ErrInternal = errors.New("internal error")

// ErrTransient marks storage failures (lock timeouts, deadlocks, lost connections)
// that the caller may retry. The unit of work has already rolled back.
var ErrTransient = errors.New("transient storage error")

// NewNotFoundError wraps ErrNotFound with a specific message.
func NewNotFoundError(message string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, message)
}

// NewValidationError wraps ErrValidation with a specific message.
func NewValidationError(message string) error {
	return fmt.Errorf("%w: %s", ErrValidation, message)
}

// MarkTransient wraps err so that errors.Is(err, ErrTransient) reports true
// while keeping the original cause reachable.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// IsRetryable reports whether err is a transient storage failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
