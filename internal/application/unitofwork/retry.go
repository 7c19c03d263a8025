package unitofwork

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
)

// RetryPolicy bounds how often an operation that lost an optimistic-lock
// race is re-run. Only shared.ErrConcurrencyConflict is retried; every other
// error is returned on the first attempt.
type RetryPolicy struct {
	MaxAttempts         int
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64

	// OnRetry is called before each re-run with the attempt that failed
	OnRetry func(ctx context.Context, attempt int, err error, wait time.Duration)
	// OnExhausted is called when the attempt budget runs out
	OnExhausted func(ctx context.Context, attempts int)
}

// DefaultRetryPolicy returns the policy used by the ledger services
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:         5,
		InitialInterval:     10 * time.Millisecond,
		MaxInterval:         200 * time.Millisecond,
		Multiplier:          2,
		RandomizationFactor: 0.5,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	if p.Multiplier > 0 {
		b.Multiplier = p.Multiplier
	}
	b.RandomizationFactor = p.RandomizationFactor
	// attempts, not elapsed time, bound the loop
	b.MaxElapsedTime = 0
	b.Reset()

	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxAttempts-1)), ctx)
}

// Run executes op until it succeeds, fails with a non-conflict error, or the
// attempt budget is spent. Each attempt must re-read state from scratch.
// Exhaustion is reported as a contention error.
func (p RetryPolicy) Run(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := 0
	err := backoff.RetryNotify(func() error {
		attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		return backoff.Permanent(err)
	}, p.backOff(ctx), func(err error, wait time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(ctx, attempts, err, wait)
		}
	})

	if err != nil && errors.Is(err, shared.ErrConcurrencyConflict) {
		if p.OnExhausted != nil {
			p.OnExhausted(ctx, attempts)
		}
		return shared.NewContentionError(attempts)
	}
	return err
}
