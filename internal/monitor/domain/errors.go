package domain

import "errors"

var (
	// ErrInvalidInterval is returned when a job interval is not a positive number of milliseconds
	// no larger than MaxIntervalMillis
	ErrInvalidInterval = errors.New("interval must be a positive number of milliseconds")

	// ErrEmptyKey is returned when a job key is blank
	ErrEmptyKey = errors.New("job key is required")

	// ErrScriptsDisabled is returned by the script producer when no scripts directory is configured
	ErrScriptsDisabled = errors.New("script tasks are disabled")

	// ErrScriptNotAllowed is returned when a script name points outside the scripts directory
	ErrScriptNotAllowed = errors.New("script is not allowed")
)
