package infra

import (
	"context"
	"time"
)

// BackoffWithBase returns base * 2^retryCount, capped at limit.
// A negative retryCount returns base.
func BackoffWithBase(base, limit time.Duration, retryCount int) time.Duration {
	if retryCount < 0 {
		return base
	}

	// 2^30 already exceeds any sane cap.
	if retryCount > 30 {
		return limit
	}

	backoff := base * time.Duration(1<<retryCount)
	if backoff > limit || backoff <= 0 {
		return limit
	}

	return backoff
}

// SleepContext waits for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
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
