package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// EmbedderOptions configures an Embedder.
type EmbedderOptions struct {
	// BatchSize caps inputs per provider call. Zero, or a value above the
	// provider's MaxBatchSize, uses the provider maximum.
	BatchSize int

	// Timeout bounds each provider call. Zero means no per-call bound.
	Timeout time.Duration

	// Retry is applied to each batch independently.
	Retry RetryPolicy
}

// Embedder turns texts into vectors through an EmbeddingService, splitting
// inputs into provider-sized batches. Output order matches input order.
type Embedder struct {
	service   driven.EmbeddingService
	batchSize int
	timeout   time.Duration
	retry     RetryPolicy
}

// NewEmbedder creates an embedder over service.
func NewEmbedder(service driven.EmbeddingService, opts EmbedderOptions) (*Embedder, error) {
	if service == nil {
		return nil, fmt.Errorf("%w: embedding service is required", domain.ErrProviderNotConfigured)
	}
	if opts.BatchSize < 0 {
		return nil, fmt.Errorf("%w: batch size must not be negative", domain.ErrInvalidArgument)
	}

	batch := opts.BatchSize
	if limit := service.MaxBatchSize(); limit > 0 && (batch == 0 || batch > limit) {
		batch = limit
	}

	return &Embedder{
		service:   service,
		batchSize: batch,
		timeout:   opts.Timeout,
		retry:     opts.Retry,
	}, nil
}

// BatchSize returns the effective inputs per provider call, 0 if unbounded.
func (e *Embedder) BatchSize() int {
	return e.batchSize
}

// Dimensions returns the provider's vector size.
func (e *Embedder) Dimensions() int {
	return e.service.Dimensions()
}

// ModelName returns the provider's model.
func (e *Embedder) ModelName() string {
	return e.service.ModelName()
}

// Embed returns one vector per text. An empty input makes no provider call.
// A failing batch is retried per the policy, then the whole call fails with
// domain.ErrEmbeddingUnavailable or domain.ErrTimeout.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	size := e.batchSize
	if size <= 0 {
		size = len(texts)
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		batch := texts[start:end]

		var got [][]float32
		err := e.retry.Do(ctx, func(ctx context.Context) error {
			callCtx, cancel := withTimeout(ctx, e.timeout)
			defer cancel()

			out, err := e.service.EmbedBatch(callCtx, batch)
			if err != nil {
				return providerError(callCtx, domain.ErrEmbeddingUnavailable, err)
			}
			if len(out) != len(batch) {
				return fmt.Errorf("%w: got %d vectors for %d inputs",
					domain.ErrEmbeddingUnavailable, len(out), len(batch))
			}
			got = out
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}

		logger.Debug("embedded %d/%d texts with %s", end, len(texts), e.service.ModelName())
		vectors = append(vectors, got...)
	}
	return vectors, nil
}
