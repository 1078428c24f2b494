// Package vector selects a vector index implementation from settings.
package vector

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector/pgvector"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// New opens the index configured by settings.
// An empty backend falls back to the in-memory index.
func New(ctx context.Context, settings domain.VectorIndexSettings) (driven.VectorIndex, error) {
	switch settings.Backend {
	case domain.VectorBackendMemory, "":
		logger.Debug("vector index: memory")
		return memory.New(), nil
	case domain.VectorBackendSQLite:
		logger.Debug("vector index: sqlite at %q", settings.Path)
		idx, err := sqlite.Open(settings.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite vector index: %w", err)
		}
		return idx, nil
	case domain.VectorBackendPgVector:
		logger.Debug("vector index: pgvector")
		idx, err := pgvector.Open(ctx, settings.DSN)
		if err != nil {
			return nil, fmt.Errorf("pgvector index: %w", err)
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("%w: unknown vector backend %q", domain.ErrInvalidArgument, settings.Backend)
	}
}
