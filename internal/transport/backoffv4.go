package transport

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// SearchBackoff builds a cenkalti/backoff/v4 strategy equivalent to Config,
// composed with backoff/v4's context-aware WithMaxRetries and WithContext
// helpers. The model adapter uses Do/Config directly. Nothing in this module
// calls SearchBackoff or Retry: the search provider issues each query once,
// without retry.
func SearchBackoff(ctx context.Context, cfg Config) backoff.BackOff {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Second
	}
	if cfg.Factor <= 0 {
		cfg.Factor = 2.0
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.InitialDelay
	eb.MaxInterval = cfg.MaxDelay
	eb.Multiplier = cfg.Factor
	eb.RandomizationFactor = 0
	if cfg.Jitter {
		eb.RandomizationFactor = 0.5
	}

	bounded := backoff.WithMaxRetries(eb, uint64(cfg.MaxAttempts-1))
	return backoff.WithContext(bounded, ctx)
}

// Retry runs op with the given backoff/v4 strategy, skipping retry for
// errors marked Permanent.
func Retry(b backoff.BackOff, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err != nil && IsPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}
