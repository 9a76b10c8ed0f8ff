package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultMaxAttempts = 3

// User-facing failures after the retry budget is spent. Callers surface these
// messages verbatim.
var (
	ErrRateLimited = errors.New("API rate limit exceeded. Please wait a moment and try again. Consider upgrading your API plan for higher limits.")
	ErrUnavailable = errors.New("AI service is temporarily unavailable. Please try again in a few minutes.")
)

// Retryer re-runs a generation call on transport-level failures. Only
// rate-limit (429) and server (5xx) errors are retried; semantic failures
// such as unparseable output pass straight through.
type Retryer struct {
	maxAttempts int
	logger      *zap.Logger
	sleep       func(ctx context.Context, d time.Duration) error
	jitter      func(base time.Duration) time.Duration
}

// NewRetryer returns a Retryer with the default attempt budget.
func NewRetryer(logger *zap.Logger) *Retryer {
	return &Retryer{
		maxAttempts: defaultMaxAttempts,
		logger:      logger,
		sleep:       sleepCtx,
		jitter:      addJitter,
	}
}

// Do executes fn until it succeeds, fails terminally, or the attempt budget
// runs out. The backoff before attempt N+1 is 2^N seconds plus jitter.
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) (*Result, error)) (*Result, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !retryable(err) || attempt == r.maxAttempts {
			break
		}

		delay := r.jitter(time.Duration(1<<attempt) * time.Second)
		r.logger.Info("retryable provider error, backing off",
			zap.Duration("delay", delay),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.maxAttempts),
			zap.Error(err))

		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	r.logger.Error("all retry attempts failed", zap.Error(lastErr))

	switch {
	case isRateLimit(lastErr):
		return nil, ErrRateLimited
	case isServerError(lastErr):
		return nil, ErrUnavailable
	default:
		return nil, lastErr
	}
}

func retryable(err error) bool {
	return isRateLimit(err) || isServerError(err)
}

func isRateLimit(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 || apiErr.Code == "rate_limit_exceeded" {
			return true
		}
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}

func isServerError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 500 && apiErr.StatusCode < 600 {
			return true
		}
	}
	return strings.Contains(err.Error(), "Provider returned error")
}

// addJitter spreads concurrent retriers out by up to 10% of the base delay.
func addJitter(base time.Duration) time.Duration {
	return base + rand.N(base/10)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
