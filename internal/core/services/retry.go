package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// RetryPolicy controls how provider calls are retried.
// A zero MaxAttempts behaves like 1: the call runs once.
type RetryPolicy struct {
	// MaxAttempts counts the first call.
	MaxAttempts int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait. Zero means uncapped.
	MaxBackoff time.Duration
}

// DefaultRetryPolicy retries once after 500ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    domain.DefaultRetryAttempts,
		InitialBackoff: domain.DefaultRetryBackoff,
		MaxBackoff:     domain.DefaultRetryMaxBackoff,
	}
}

// RetryPolicyFromSettings converts configured retry settings.
func RetryPolicyFromSettings(s domain.RetrySettings) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    s.MaxAttempts,
		InitialBackoff: s.InitialBackoff,
		MaxBackoff:     s.MaxBackoff,
	}
}

// Backoff returns the wait after the given zero-based failed attempt:
// InitialBackoff << attempt, capped at MaxBackoff.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if p.InitialBackoff <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}

	d := p.InitialBackoff
	for i := 0; i < attempt; i++ {
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			break
		}
		if d > time.Duration(1<<62) {
			break
		}
		d <<= 1
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

// Retryable reports whether err may succeed on a second attempt.
// Caller errors, dimension mismatches, timeouts and cancellation are final.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrDimensionMismatch),
		errors.Is(err, domain.ErrTimeout),
		errors.Is(err, domain.ErrProviderNotConfigured),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}

// Do runs fn until it succeeds, returns a final error, or the attempts
// run out. The wait between attempts is abandoned when ctx is done; a
// deadline hit while waiting is reported as domain.ErrTimeout.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !Retryable(err) || attempt == attempts-1 {
			return err
		}

		wait := p.Backoff(attempt)
		logger.Debug("attempt %d/%d failed, retrying in %s: %v", attempt+1, attempts, wait, err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %w", domain.ErrTimeout, errors.Join(err, ctx.Err()))
			}
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
	return err
}
