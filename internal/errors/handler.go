package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider defines the interface for obtaining terminal color codes.
// This abstraction breaks the import cycle with cli.
type ColorProvider interface {
	Yellow() string
	Reset() string
}

// DefaultColorProvider provides no color codes (for non-terminal output).
type DefaultColorProvider struct{}

func (d DefaultColorProvider) Yellow() string { return "" }
func (d DefaultColorProvider) Reset() string  { return "" }

// HandleRunError formats and prints the message for a failed generation run
// and maps it to an exit code. Timeouts, cancellations, parameter errors,
// worker failures and persistence failures each get specific feedback.
//
// Parameters:
//   - err: The error that occurred.
//   - duration: How long the run lasted before failing (0 if unknown).
//   - out: The io.Writer to which the error message will be written.
//   - colors: Provider for terminal color codes (can be nil for no colors).
//
// Returns:
//   - int: The appropriate exit code for the error type.
func HandleRunError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	if colors == nil {
		colors = DefaultColorProvider{}
	}

	msgSuffix := ""
	if duration > 0 {
		msgSuffix = fmt.Sprintf(" after %s%s%s", colors.Yellow(), duration, colors.Reset())
	}

	var (
		paramErr  InvalidParametersError
		cfgErr    ConfigError
		workerErr WorkerError
		sizeErr   SizeInvariantError
		serialErr SerializationError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(out, "Status: Failure (Timeout). The execution limit was reached%s; the run is discarded.\n", msgSuffix)
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(out, "%sStatus: Canceled%s.%s\n", colors.Yellow(), msgSuffix, colors.Reset())
		return ExitErrorCanceled
	case errors.As(err, &paramErr), errors.As(err, &cfgErr):
		fmt.Fprintf(out, "Status: Rejected. %v\n", err)
		return ExitErrorConfig
	case errors.As(err, &sizeErr):
		fmt.Fprintf(out, "Status: Failure. Task %d broke the size invariant (expected %d, got %d).\n",
			sizeErr.Task, sizeErr.Expected, sizeErr.Actual)
		return ExitErrorGeneric
	case errors.As(err, &workerErr):
		fmt.Fprintf(out, "Status: Failure. Task %d failed%s: %v\n", workerErr.Task, msgSuffix, workerErr.Cause)
		return ExitErrorGeneric
	case errors.As(err, &serialErr):
		fmt.Fprintf(out, "Status: Failure. %v\n", err)
		return ExitErrorIO
	}
	fmt.Fprintf(out, "Status: Failure. An unexpected error occurred: %v\n", err)
	return ExitErrorGeneric
}
