// Package apperrors defines structured application error types,
// allowing for a clear distinction between error classes (configuration,
// invalid generation parameters, worker failures, persistence) and for
// carrying the underlying cause.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// All error types that carry a cause implement Unwrap() to support errors.Is()
// and errors.As().
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Application exit codes define the standard exit statuses for the application.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the run exceeded its deadline.
	ExitErrorMismatch = 3   // Indicates sequential and parallel results disagree.
	ExitErrorConfig   = 4   // Indicates a configuration or parameter error.
	ExitErrorIO       = 5   // Indicates a persistence (serialization) failure.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// InvalidParametersError reports generation parameters that cannot produce a
// finite tree or are otherwise out of range. It is always raised before any
// recursion starts, so a misconfiguration never shows up as a hang or as a
// near-empty tree.
type InvalidParametersError struct {
	// Field is the parameter that failed validation (e.g. "length_ratio").
	Field string
	// Message describes the constraint that was violated.
	Message string
	// Value is the rejected value.
	Value any
}

// Error returns the error message for an InvalidParametersError.
func (e InvalidParametersError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Field, e.Value, e.Message)
}

// NewInvalidParametersError creates a new InvalidParametersError.
//
// Parameters:
//   - field: The name of the rejected parameter.
//   - value: The rejected value.
//   - format: A format string describing the constraint.
//   - a: Arguments to be formatted into the message.
//
// Returns:
//   - error: A new InvalidParametersError instance.
func NewInvalidParametersError(field string, value any, format string, a ...any) error {
	return InvalidParametersError{Field: field, Value: value, Message: fmt.Sprintf(format, a...)}
}

// IsInvalidParameters reports whether err is, or wraps, an InvalidParametersError.
func IsInvalidParameters(err error) bool {
	var target InvalidParametersError
	return errors.As(err, &target)
}

// WorkerError encapsulates the failure of one parallel task while preserving
// the original cause. A single WorkerError invalidates the whole run.
type WorkerError struct {
	// Task is the submission index of the failed task.
	Task int
	// Cause is the underlying error raised by the worker.
	Cause error
}

// Error returns a message naming the failed task and its cause.
func (e WorkerError) Error() string {
	return fmt.Sprintf("worker failed on task %d: %v", e.Task, e.Cause)
}

// Unwrap returns the original wrapped error.
func (e WorkerError) Unwrap() error { return e.Cause }

// SizeInvariantError signals that a worker produced a different number of
// branches than the size predicted for its task. It indicates that a
// pre-sized encoding was used outside its validity condition.
type SizeInvariantError struct {
	Task     int
	Expected int
	Actual   int
}

// Error returns the error message for a SizeInvariantError.
func (e SizeInvariantError) Error() string {
	return fmt.Sprintf("size invariant violated on task %d: expected %d branches, got %d",
		e.Task, e.Expected, e.Actual)
}

// SerializationError reports a failure to persist a result. The computed
// result is still owned by the caller and remains valid.
type SerializationError struct {
	// Path is the destination that could not be written.
	Path string
	// Cause is the underlying I/O or encoding error.
	Cause error
}

// Error returns the error message for a SerializationError.
func (e SerializationError) Error() string {
	return fmt.Sprintf("failed to save result to %s: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause.
func (e SerializationError) Unwrap() error { return e.Cause }

// ServerError represents errors that occur in the HTTP server component.
type ServerError struct {
	// Message is a descriptive message about the server error.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the error message for a ServerError.
func (e ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError creates a new ServerError with a message and optional cause.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// ValidationError represents an error due to invalid request input.
// It is used by the HTTP API for query parameter validation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message describes why validation failed.
	Message string
	// Value is the invalid value (optional, may be nil).
	Value any
}

// Error returns the error message for a ValidationError.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
