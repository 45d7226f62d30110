package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// transienter is implemented by the typed provider and enrichment errors.
type transienter interface{ Transient() bool }

// Executor retries an operation on transient failure with exponential
// backoff. Only errors that declare themselves transient retry (provider
// network/timeout and 429/5xx statuses); parse failures, other 4xx and
// untyped errors are permanent and propagate on the first attempt.
type Executor struct {
	maxRetries uint64
	base       time.Duration
}

func New(maxRetries int, base time.Duration) *Executor {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if base <= 0 {
		base = 2 * time.Second
	}
	return &Executor{maxRetries: uint64(maxRetries), base: base}
}

// Do runs op until it succeeds, fails permanently, exhausts retries, or
// ctx is done. The final error is returned as-is for the caller to turn
// into a "no contribution".
func (e *Executor) Do(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.base
	b.Multiplier = 2
	b.RandomizationFactor = 0 // deterministic intervals
	b.MaxElapsedTime = 0

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		var tr transienter
		if !errors.As(err, &tr) || !tr.Transient() {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, e.maxRetries), ctx))
}
