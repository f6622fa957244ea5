package completion

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/quorumlab/rubric/pkg/metrics"
)

// Default retry policy for transient completion failures.
const (
	defaultMaxRetries      = 3
	defaultInitialInterval = 500 * time.Millisecond
)

// RetryOption applies a configuration option to the Retrier.
type RetryOption func(*Retrier)

// WithMaxRetries bounds the number of retry attempts after the first call.
func WithMaxRetries(n int) RetryOption {
	return func(r *Retrier) {
		if n >= 0 {
			r.maxRetries = uint64(n)
		}
	}
}

// WithInitialInterval sets the first backoff delay.
func WithInitialInterval(d time.Duration) RetryOption {
	return func(r *Retrier) {
		if d > 0 {
			r.initialInterval = d
		}
	}
}

// Retrier decorates a Completer with exponential-backoff retries. Malformed
// requests and empty completions are permanent and returned immediately;
// everything else is treated as transient.
type Retrier struct {
	inner           Completer
	maxRetries      uint64
	initialInterval time.Duration
}

// NewRetrier wraps inner with the retry policy.
func NewRetrier(inner Completer, opts ...RetryOption) *Retrier {
	r := &Retrier{
		inner:           inner,
		maxRetries:      defaultMaxRetries,
		initialInterval: defaultInitialInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Complete calls the wrapped completer, retrying transient failures.
func (r *Retrier) Complete(ctx context.Context, req Request) (string, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initialInterval

	var result string
	attempt := 0
	op := func() error {
		attempt++
		if attempt > 1 {
			metrics.RecordCompletionRetry()
		}
		metrics.RecordCompletionRequest()
		start := time.Now()
		text, err := r.inner.Complete(ctx, req)
		metrics.RecordCompletionLatency(float64(time.Since(start).Milliseconds()))
		if err != nil {
			metrics.RecordCompletionError()
			if isPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = text
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, r.maxRetries), ctx))
	if err != nil {
		return "", err
	}
	return result, nil
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrEmptyRequest) ||
		errors.Is(err, ErrNoContent) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
