package agents

import (
	"context"
	"time"

	"github.com/placepilot/placepilot/internal/domain"
)

// withRetry runs fn up to attempts times with doubling backoff. Only
// retryable collaborator failures are retried; this must only be used
// for idempotent reads, never writes.
func withRetry(ctx context.Context, attempts int, backoff time.Duration, fn func(context.Context) error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !domain.IsRetryable(err) || i == attempts-1 {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff << i):
		}
	}
	return err
}
