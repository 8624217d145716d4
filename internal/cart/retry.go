package cart

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"storefront/internal/model"
)

// RetryPolicy decides how a failed cart mutation is retried.
// Before each retry the backend replaces the cart, so only errors that mean
// "this cart is gone" should be retryable.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Retryable reports whether err warrants another attempt.
	Retryable func(err error) bool

	// Backoff is the delay before each retry. Zero retries immediately.
	Backoff time.Duration
}

// DefaultRetryPolicy retries once, immediately, when the cart no longer exists.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 2,
		Retryable:   IsStaleCart,
	}
}

// IsStaleCart reports whether err means the backend has lost the cart.
func IsStaleCart(err error) bool {
	return errors.Is(err, model.ErrCartNotFound)
}

// Do runs op until it succeeds, returns a non-retryable error, or attempts
// run out. op receives the 1-based attempt number.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsStaleCart
	}

	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if p.Backoff > 0 {
		b = backoff.NewConstantBackOff(p.Backoff)
	}
	b = backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op(ctx, attempt)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}
