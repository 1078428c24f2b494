package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// providerError classifies a failed provider call. Deadline expiry becomes
// domain.ErrTimeout; anything else not already classified is wrapped in kind.
func providerError(ctx context.Context, kind, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, domain.ErrTimeout),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrProviderNotConfigured),
		errors.Is(err, kind):
		return err
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %w", kind, err)
	}
}

// withTimeout bounds a single provider call. A zero timeout only inherits
// the parent deadline.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
