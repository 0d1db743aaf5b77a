// Package retry provides exponential backoff for short, idempotent operations.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Strategy configures exponential backoff.
//
// The delay before retry n (1-based) is min(BaseDelay * ExponentialBase^(n-1), MaxDelay).
// With the defaults: 100ms, 200ms, then give up.
type Strategy struct {
	MaxAttempts     int           // Total attempts including the first
	BaseDelay       time.Duration // Delay before the first retry
	MaxDelay        time.Duration // Upper bound of any single delay
	ExponentialBase float64       // Backoff multiplier
}

// DefaultStrategy returns the strategy used for cache commits.
func DefaultStrategy() Strategy {
	return Strategy{
		MaxAttempts:     3,
		BaseDelay:       100 * time.Millisecond,
		MaxDelay:        2 * time.Second,
		ExponentialBase: 2.0,
	}
}

// NoRetry runs the operation exactly once.
func NoRetry() Strategy {
	return Strategy{MaxAttempts: 1}
}

// CalculateRetryDelay returns the delay before the given retry (1-based).
func (s Strategy) CalculateRetryDelay(retry int) time.Duration {
	if retry <= 1 {
		return s.BaseDelay
	}

	delay := float64(s.BaseDelay) * math.Pow(s.ExponentialBase, float64(retry-1))
	if s.MaxDelay > 0 && delay > float64(s.MaxDelay) {
		return s.MaxDelay
	}
	return time.Duration(delay)
}

// IsRetryable reports whether another attempt is allowed after attemptCount attempts.
func (s Strategy) IsRetryable(attemptCount int) bool {
	return attemptCount < s.MaxAttempts
}

// Schedule describes the attempts and delays between them.
func (s Strategy) Schedule() string {
	if s.MaxAttempts <= 1 {
		return "no retries"
	}
	schedule := fmt.Sprintf("%d attempts:", s.MaxAttempts)
	for i := 1; i < s.MaxAttempts; i++ {
		schedule += fmt.Sprintf(" %v", s.CalculateRetryDelay(i))
	}
	return schedule
}

// Do runs fn until it succeeds, attempts run out, or ctx is done.
// The last error is returned, annotated with the attempt count when retries happened.
func (s Strategy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !s.IsRetryable(attempt) {
			if attempt > 1 {
				return fmt.Errorf("after %d attempts: %w", attempt, err)
			}
			return err
		}

		timer := time.NewTimer(s.CalculateRetryDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-timer.C:
		}
	}
}
