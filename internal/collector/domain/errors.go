package domain

import "errors"

var (
	// ErrStatNotFound is returned when no stored reading matches a lookup
	ErrStatNotFound = errors.New("stat not found")

	// ErrInvalidMessage is returned when a delivery body is not a stats message
	ErrInvalidMessage = errors.New("invalid stats message")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
