package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// RetryPolicy bounds how often a fetch is attempted within one cycle.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// DefaultRetryPolicy is three attempts, five seconds apart.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, Delay: 5 * time.Second}

// Retry calls fn up to policy.MaxRetries times, waiting policy.Delay between
// failed attempts. The error of the final attempt is returned. ErrNoData is
// returned as-is without further attempts.
func Retry[T any](ctx context.Context, policy RetryPolicy, logger *log.Logger, fn func(context.Context) ([]T, error)) ([]T, error) {
	if logger == nil {
		logger = log.Default()
	}
	attempts := policy.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		records, err := fn(ctx)
		if err == nil || errors.Is(err, ErrNoData) {
			return records, err
		}
		lastErr = err
		if i == attempts {
			break
		}

		logger.Printf("[WARN] fetch failed (attempt %d/%d): %v, retrying in %v", i, attempts, err, policy.Delay)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry aborted after attempt %d: %w", i, lastErr)
		case <-time.After(policy.Delay):
		}
	}
	return nil, fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}
