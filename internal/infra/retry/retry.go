package retry

// Retry with exponential backoff and full jitter.
// The caller decides which errors are retryable and may supply a server-given
// wait (Telegram's retry_after) that takes precedence over the jittered delay.

import (
	"context"
	"math/rand"
	"time"
)

type Options struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// Retryable reports whether err is worth another attempt. Nil means never.
	Retryable func(err error) bool
	// RetryAfter returns a server-requested wait for err, or 0.
	RetryAfter func(err error) time.Duration
}

func clamp(d, max time.Duration) time.Duration {
	if max > 0 && d > max {
		return max
	}
	return d
}

// FullJitterSleep returns a random delay in [0, min(base<<attempt, max)].
func FullJitterSleep(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if baseDelay <= 0 {
		return 0
	}
	maxForAttempt := clamp(baseDelay<<attempt, maxDelay)
	if maxForAttempt <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(maxForAttempt) + 1))
}

// Do runs fn until it succeeds, returns a non-retryable error, the retries
// are exhausted or ctx is done.
func Do(ctx context.Context, opts Options, fn func() error) error {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 300 * time.Millisecond
	}

	totalAttempts := 1 + opts.MaxRetries
	var lastErr error

	for attempt := 0; attempt < totalAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if opts.Retryable == nil || !opts.Retryable(err) || attempt == totalAttempts-1 {
			return lastErr
		}

		sleep := FullJitterSleep(attempt, opts.BaseDelay, opts.MaxDelay)
		if opts.RetryAfter != nil {
			if wait := opts.RetryAfter(err); wait > 0 {
				sleep = clamp(wait, opts.MaxDelay)
			}
		}

		t := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	return lastErr
}
