package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.RetrievalService = (*Retriever)(nil)

// Retriever embeds a query and returns the nearest passages from one index.
type Retriever struct {
	embedder *Embedder
	index    driven.VectorIndex
}

// NewRetriever binds a retriever to an embedder and an index.
func NewRetriever(embedder *Embedder, index driven.VectorIndex) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
	}
}

// Retrieve returns up to topK passage texts ordered by ascending distance.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidArgument)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidArgument, topK)
	}
	if r.embedder == nil || r.index == nil {
		return nil, fmt.Errorf("%w: retriever is not bound to an index", domain.ErrProviderNotConfigured)
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	passages, err := r.index.Search(ctx, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	logger.Debug("retrieved %d passages (top_k=%d)", len(passages), topK)
	return domain.PassageTexts(passages), nil
}
