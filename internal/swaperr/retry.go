package swaperr

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig bounds a try_with_retries loop. It mirrors the shape of the
// teacher's periodic worker loop (poll interval, bounded attempts) but
// applied to a single call-and-retry instead of a background ticker.
type RetryConfig struct {
	MaxAttempts int
	Backoff     time.Duration
	// Classifier, if set, overrides Retryable for a specific call site —
	// e.g. to treat a particular HTTP status as non-retryable.
	Classifier func(error) bool
}

// DefaultRetryConfig makes up to 3 attempts with a fixed 1s backoff
// between them.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Backoff:     time.Second,
	}
}

// Retry calls fn until it succeeds, the classifier reports a
// non-retryable error, the context is cancelled, or MaxAttempts is
// exhausted. It returns the last error observed.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	classify := cfg.Classifier
	if classify == nil {
		classify = Retryable
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrCancelled, err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !classify(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		case <-time.After(cfg.Backoff):
		}
	}
	return fmt.Errorf("retries exhausted after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
