// Package retry wraps network calls with exponential backoff. Only failures
// the domain taxonomy classifies as retryable are absorbed; everything else
// propagates to the caller immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/halcyra/oracle-validator-cli/internal/domain"
)

// ErrExhausted is returned once every attempt has failed with a retryable
// error. It wraps the last attempt's error.
var ErrExhausted = errors.New("retry attempts exhausted")

const (
	DefaultMaxAttempts  = 5
	DefaultInitialDelay = 500 * time.Millisecond

	maxJitter = time.Second
)

type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = DefaultInitialDelay
	}
	return c
}

// Delay computes the sleep before retrying after the given zero-based
// attempt: initialDelay * 2^attempt plus random jitter in [0, 1s).
func Delay(initialDelay time.Duration, attempt int) time.Duration {
	backoff := initialDelay << uint(attempt)
	return backoff + time.Duration(rand.Int63n(int64(maxJitter)))
}

// Do invokes op until it succeeds, fails with a non-retryable error, or the
// attempt budget runs out. The backoff sleep honors ctx cancellation so one
// account's retries never block another's goroutines.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	var zero T
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !domain.Retryable(err) {
			return zero, err
		}
		lastErr = err

		if attempt == cfg.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(Delay(cfg.InitialDelay, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, fmt.Errorf("%w: %w", ErrExhausted, lastErr)
}
