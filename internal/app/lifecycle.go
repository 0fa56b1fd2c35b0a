package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// SetupContext applies the run timeout to ctx. The returned cancel function
// should be deferred.
func SetupContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// SetupSignals creates a context that is canceled when the process receives
// SIGINT (Ctrl+C) or SIGTERM, so runs stop cooperatively and the server
// shuts down gracefully.
//
// Parameters:
//   - ctx: The parent context.
//
// Returns:
//   - context.Context: A context canceled on signal receipt.
//   - context.CancelFunc: Stops listening for signals (should be deferred).
func SetupSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}
