// Package retry provides the resubmission loop used by the HTTP request
// executor. Unlike a generic exponential-backoff helper, delays here are
// server-directed: an attempt that fails with a DelayedError is retried
// after exactly the delay the server asked for (a Retry-After hint or the
// caller's fallback); any other error ends the loop immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DelayedError marks an attempt that should be repeated after Delay.
// The request executor returns one for every 429 response.
type DelayedError struct {
	Delay time.Duration
	Err   error
}

// Error implements the error interface
func (e *DelayedError) Error() string {
	return fmt.Sprintf("retry in %s: %v", e.Delay, e.Err)
}

// Unwrap returns the underlying error
func (e *DelayedError) Unwrap() error {
	return e.Err
}

// Delayed wraps err to request a retry after d.
func Delayed(d time.Duration, err error) error {
	return &DelayedError{Delay: d, Err: err}
}

// Config provides retry configuration
type Config struct {
	// MaxAttempts caps the total number of attempts. Zero means no ceiling:
	// the loop resubmits for as long as the server keeps asking, matching
	// the platform's own rate-limit contract.
	MaxAttempts int
}

// Do executes fn until it succeeds, fails with a non-delayed error, the
// context is cancelled, or the attempt ceiling (if any) is reached. When
// the ceiling is reached the last underlying error is returned.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry cancelled before attempt %d: %w", attempt, err)
		}

		err := fn()
		if err == nil {
			return nil
		}

		var de *DelayedError
		if !errors.As(err, &de) {
			return err
		}

		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			return fmt.Errorf("retry gave up after %d attempts: %w", attempt, de.Err)
		}

		// Sleep with context cancellation support
		timer := time.NewTimer(de.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled during wait for attempt %d: %w", attempt+1, ctx.Err())
		case <-timer.C:
		}
	}
}

// DoWithResult executes fn with retry and returns both result and error
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func() error {
		var innerErr error
		result, innerErr = fn()
		return innerErr
	})
	return result, err
}
