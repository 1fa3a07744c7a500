// Package concurrency holds the small set of generic goroutine primitives
// shared across the interceptors: a race-against-timeout helper that
// returns a typed fallback instead of an error (Design Notes §9 — fail
// open, never propagate), and throttle/debounce helpers (the throttle
// backs scroll capture; the debounce has no caller outside its tests). Grounded on the teacher's
// internal/util/safego.go for the panic-recovering goroutine launch
// style; the timeout race itself has no teacher analog (the teacher's
// internal/bridge/timeout.go performed a structurally different
// tool-call-timeout, already deleted) so it is written fresh from the
// spec's own description of the "race the build against a timeout"
// contract (§4.12).
package concurrency

import (
	"context"
	"time"
)

// RaceWithTimeout runs fn in a goroutine and returns its result if it
// completes within timeout, otherwise returns fallback. fn's panics are
// recovered and treated as a fallback result, never crashing the caller.
func RaceWithTimeout[T any](ctx context.Context, timeout time.Duration, fallback T, fn func(ctx context.Context) T) T {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultCh := make(chan T, 1)
	go func() {
		defer func() {
			if recover() != nil {
				select {
				case resultCh <- fallback:
				default:
				}
			}
		}()
		resultCh <- fn(ctx)
	}()

	select {
	case res := <-resultCh:
		return res
	case <-ctx.Done():
		return fallback
	}
}
