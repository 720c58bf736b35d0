// Package retry provides the bounded retry policy shared by all outbound
// catalog and probe calls.
package retry

import (
	"context"
	"time"
)

// Policy controls how an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first one.
	MaxAttempts int

	// BaseDelay is the wait after the first failed attempt; it doubles after
	// every further failure (BaseDelay, 2*BaseDelay, 4*BaseDelay, ...).
	BaseDelay time.Duration

	// Retryable decides whether an error is worth another attempt. A nil
	// predicate retries every error.
	Retryable func(error) bool

	// OnRetry, when set, is called before each backoff wait with the 0-based
	// index of the attempt that just failed.
	OnRetry func(attempt int, err error)
}

// Default matches the catalog API behavior: three attempts with 1s and 2s
// waits between them.
var Default = Policy{
	MaxAttempts: 3,
	BaseDelay:   time.Second,
}

// Do runs op until it succeeds, the policy is exhausted, a non-retryable
// error occurs, or ctx is cancelled. The last error is returned on failure.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return zero, err
		}

		if attempt < attempts-1 {
			if p.OnRetry != nil {
				p.OnRetry(attempt, err)
			}
			select {
			case <-time.After(p.BaseDelay << attempt):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}

	return zero, lastErr
}
