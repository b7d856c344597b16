package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-usage-stats/internal/model"
)

// ErrRetriesExhausted is returned when every attempt failed with a retryable error.
var ErrRetriesExhausted = errors.New("retries exhausted")

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Retrier runs an operation under a RetryConfig.
type Retrier struct {
	Config model.RetryConfig
	Sleep  SleepFunc
}

// Do calls op until it succeeds, returns a non-retryable error, or the
// attempt budget runs out. op reports whether its error may be retried.
func (r Retrier) Do(ctx context.Context, op func(ctx context.Context, attempt int) (retry bool, err error)) error {
	attempts := r.Config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		retry, err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		last = err
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, r.Config.Delay(attempt)); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, attempts, last)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
