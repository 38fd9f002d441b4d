// Package retry wraps arbitrary network calls in a bounded retry loop with
// linearly increasing delay between attempts.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultAttempts is the total number of tries, including the first.
	DefaultAttempts = 3
	// DefaultStep is multiplied by the attempt number to get the delay.
	DefaultStep = time.Second
)

// Policy configures a retry loop.
type Policy struct {
	// Attempts is the total number of tries. Values below 1 mean one try.
	Attempts int
	// Step is the linear backoff unit: attempt n waits n*Step before trying again.
	Step time.Duration
	// OnRetry, if set, is called after a failed attempt that will be retried.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Default returns the policy used for all network calls: 3 attempts, 1s linear step.
func Default() Policy {
	return Policy{Attempts: DefaultAttempts, Step: DefaultStep}
}

// linear implements backoff.BackOff with a delay of n*step after the n-th failure.
type linear struct {
	step time.Duration
	n    int
}

func (l *linear) NextBackOff() time.Duration {
	l.n++
	return time.Duration(l.n) * l.step
}

func (l *linear) Reset() { l.n = 0 }

// Do runs fn until it succeeds, the attempts are exhausted, or ctx is done.
// After exhaustion the last error returned by fn is returned unchanged.
// Errors wrapped with Permanent stop the loop immediately.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(&linear{step: p.Step}, uint64(attempts-1)),
		ctx,
	)

	attempt := 0
	op := func() error {
		attempt++
		return fn(ctx)
	}

	var notify backoff.Notify
	if p.OnRetry != nil {
		notify = func(err error, wait time.Duration) {
			p.OnRetry(attempt, err, wait)
		}
	}

	return backoff.RetryNotify(op, b, notify)
}

// Value is Do for functions that return a result.
func Value[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Do(ctx, p, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// Permanent marks err as not worth retrying. Do returns the unwrapped err.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
