package textgen

import (
	"context"
	"time"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Backoff returns base * 2^(attempt-1) for attempt >= 1.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}

type retrying struct {
	gen      Generator
	attempts int
	base     time.Duration
	sleep    Sleeper
}

// WithRetry wraps gen so failed calls are retried up to attempts times in
// total, waiting Backoff(base, n) between tries.
func WithRetry(gen Generator, attempts int, base time.Duration, sleep Sleeper) Generator {
	if attempts < 1 {
		attempts = 1
	}
	if sleep == nil {
		sleep = SleepContext
	}
	return &retrying{gen: gen, attempts: attempts, base: base, sleep: sleep}
}

func (r *retrying) Name() string { return r.gen.Name() }

func (r *retrying) Generate(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		text, err := r.gen.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == r.attempts {
			break
		}
		if err := r.sleep(ctx, Backoff(r.base, attempt)); err != nil {
			return "", err
		}
	}
	return "", lastErr
}
