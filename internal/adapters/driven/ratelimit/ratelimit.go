// Package ratelimit throttles calls to AI providers with a token bucket and
// backs off after the provider answers 429.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// DefaultRetryAfter is the backoff used when a 429 carries no Retry-After.
const DefaultRetryAfter = 10 * time.Second

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64

	// Burst is the maximum burst size. Zero means 1.
	Burst int
}

// Limiter is a token bucket with a backoff window set by rate limit errors.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// NewLimiter creates a limiter. A non-positive rate disables throttling,
// leaving only the 429 backoff.
func NewLimiter(cfg Config) *Limiter {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := max(cfg.Burst, 1)

	return &Limiter{
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
}

// Wait blocks until a call may be made. It first honours any backoff
// recorded by RecordRateLimit, then the token bucket.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if wait := retryAt.Sub(l.now()); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.limiter.Wait(ctx)
}

// RecordRateLimit sets a backoff window. Zero uses DefaultRetryAfter.
// A shorter window never replaces a longer one already in place.
func (l *Limiter) RecordRateLimit(retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = DefaultRetryAfter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if until := l.now().Add(retryAfter); until.After(l.retryAt) {
		l.retryAt = until
	}
}

// Allow reports whether a call may be made now without waiting.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if l.now().Before(retryAt) {
		return false
	}
	return l.limiter.Allow()
}

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService throttles another EmbeddingService.
type EmbeddingService struct {
	driven.EmbeddingService
	limiter *Limiter
}

// WrapEmbedding returns svc throttled by limiter.
func WrapEmbedding(svc driven.EmbeddingService, limiter *Limiter) *EmbeddingService {
	return &EmbeddingService{EmbeddingService: svc, limiter: limiter}
}

// EmbedBatch waits for the limiter, then calls the wrapped service.
// A rate limit answer pushes back every later call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	vectors, err := s.EmbeddingService.EmbedBatch(ctx, texts)
	var rl *domain.RateLimitError
	if errors.As(err, &rl) {
		logger.Warn("%s rate limited embedding requests, backing off", rl.Provider)
		s.limiter.RecordRateLimit(rl.RetryAfter)
	}
	return vectors, err
}
