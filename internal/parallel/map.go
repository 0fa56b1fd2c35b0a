// Package parallel provides a bounded, ordered fan-out primitive used to
// dispatch independent tasks across a fixed number of goroutines.
package parallel

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// PanicError carries a panic recovered inside a task so that it surfaces as
// an ordinary error on the caller's goroutine.
type PanicError struct {
	// Index is the position of the task that panicked.
	Index int
	// Value is the value passed to panic.
	Value any
	// Stack is the goroutine stack captured at recovery time.
	Stack []byte
}

// Error returns a message with the task index and panic value.
func (e *PanicError) Error() string {
	return fmt.Sprintf("task %d panicked: %v", e.Index, e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Map applies fn to every item with at most limit concurrent invocations and
// returns the results indexed like the input, regardless of completion order.
//
// The first failing task cancels the context passed to the remaining ones and
// its error is returned; tasks that have not started yet are skipped. A panic
// inside fn is recovered and reported as a *PanicError. Each result slot is
// written by exactly one goroutine, so no locking is needed.
//
// Parameters:
//   - ctx: The parent context. Its cancellation stops dispatch.
//   - items: The inputs, one task per element.
//   - limit: The maximum number of concurrent tasks. Values < 1 mean 1.
//   - fn: The task function. It receives the group context and the item index.
//
// Returns:
//   - []R: The results, where results[i] corresponds to items[i].
//   - error: The first task error, or the context error if ctx ended first.
func Map[T, R any](ctx context.Context, items []T, limit int,
	fn func(ctx context.Context, index int, item T) (R, error)) ([]R, error) {

	results := make([]R, len(items))
	if len(items) == 0 {
		return results, ctx.Err()
	}
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Index: i, Value: r, Stack: debug.Stack()}
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := fn(gctx, i, items[i])
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A deadline that expired after every task finished still voids the batch.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
