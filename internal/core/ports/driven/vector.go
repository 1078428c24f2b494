package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// VectorIndex stores (id, vector, text) records and answers nearest
// neighbour queries by ascending L2 distance.
//
// Implementations must be safe for concurrent use: searches may run in
// parallel, inserts and deletes are exclusive.
type VectorIndex interface {
	// Insert stores entries and returns their new IDs in entry order.
	// The first vector ever inserted fixes the index dimension; an entry
	// of any other length fails the whole call with domain.ErrDimensionMismatch.
	Insert(ctx context.Context, entries []domain.IndexEntry) ([]uint64, error)

	// Search returns up to k passages closest to query, nearest first.
	// Ties go to the earlier insert. An empty index returns no passages.
	Search(ctx context.Context, query []float32, k int) ([]domain.Passage, error)

	// Delete removes records by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []uint64) error

	// Len returns the number of stored records.
	Len() int

	// Dimension returns the fixed vector length, or 0 before the first insert.
	Dimension() int

	// Close releases resources.
	Close() error
}
