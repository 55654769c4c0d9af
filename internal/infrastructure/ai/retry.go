package ai

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"time"

	"google.golang.org/genai"
)

// RetryConfig is an exponential backoff policy
type RetryConfig struct {
	MaxAttempts       int
	BackoffBase       time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
}

// DefaultRetryConfig retries three times starting at one second
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       time.Second,
		BackoffMultiplier: 2,
		MaxBackoff:        10 * time.Second,
	}
}

// Backoff returns the wait before the given retry (1 = first retry),
// with up to 25% jitter either way
func (c RetryConfig) Backoff(retry int, jitter func() float64) time.Duration {
	mult := c.BackoffMultiplier
	if mult < 1 {
		mult = 2
	}
	d := float64(c.BackoffBase) * math.Pow(mult, float64(retry-1))
	if c.MaxBackoff > 0 && d > float64(c.MaxBackoff) {
		d = float64(c.MaxBackoff)
	}
	if jitter != nil {
		d += d * 0.25 * (2*jitter() - 1)
	}
	return time.Duration(d)
}

// Retry runs fn until it succeeds, returns a non-retryable error, the
// attempts run out or ctx ends
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	return retry(ctx, cfg, rand.Float64, sleepCtx, fn)
}

func retry(
	ctx context.Context,
	cfg RetryConfig,
	jitter func() float64,
	sleep func(context.Context, time.Duration) error,
	fn func(ctx context.Context) error,
) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts || !IsRetryable(err) {
			return err
		}
		if serr := sleep(ctx, cfg.Backoff(attempt, jitter)); serr != nil {
			return err
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsRetryable reports whether the error is worth another attempt:
// upstream 408/429/5xx, per-call deadline or a network timeout
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if code, ok := statusCode(err); ok {
		return code == 408 || code == 429 || code >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func statusCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}
