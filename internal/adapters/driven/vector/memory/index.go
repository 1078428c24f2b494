// Package memory provides an in-process brute-force vector index.
//
// Search scans every record (O(n·d) per query), which suits interactive
// document Q&A collections.
package memory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector/l2"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// ErrClosed is returned by operations on a closed index.
var ErrClosed = errors.New("memory: index closed")

// Index stores records in insertion order.
type Index struct {
	mu      sync.RWMutex
	records []domain.IndexRecord
	nextID  uint64
	dim     int
	closed  bool
}

// Option configures the index.
type Option func(*Index)

// WithDimension fixes the dimension before the first insert.
func WithDimension(dim int) Option {
	return func(i *Index) {
		if dim > 0 {
			i.dim = dim
		}
	}
}

// New creates an empty index.
func New(opts ...Option) *Index {
	idx := &Index{nextID: 1}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Insert appends entries with fresh IDs. The batch is validated before
// anything is stored, so a mismatch leaves the index unchanged.
func (i *Index) Insert(_ context.Context, entries []domain.IndexEntry) ([]uint64, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil, ErrClosed
	}

	dim, err := l2.CheckEntries(i.dim, entries)
	if err != nil {
		return nil, err
	}
	i.dim = dim

	ids := make([]uint64, len(entries))
	for n := range entries {
		id := i.nextID
		i.nextID++
		i.records = append(i.records, domain.IndexRecord{
			ID:     id,
			Vector: slices.Clone(entries[n].Vector),
			Text:   entries[n].Text,
		})
		ids[n] = id
	}
	return ids, nil
}

// Search ranks every record by L2 distance to query.
func (i *Index) Search(_ context.Context, query []float32, k int) ([]domain.Passage, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.closed {
		return nil, ErrClosed
	}
	if err := l2.CheckQuery(i.dim, query, k); err != nil {
		return nil, err
	}
	if len(i.records) == 0 {
		return []domain.Passage{}, nil
	}

	candidates := make([]l2.Candidate, len(i.records))
	for n := range i.records {
		candidates[n] = l2.Candidate{
			Seq:      i.records[n].ID,
			Text:     i.records[n].Text,
			Distance: l2.Distance(query, i.records[n].Vector),
		}
	}
	return l2.TopK(candidates, k), nil
}

// Delete removes records by ID. The dimension stays fixed.
func (i *Index) Delete(_ context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return ErrClosed
	}

	remove := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		remove[id] = struct{}{}
	}
	i.records = slices.DeleteFunc(i.records, func(r domain.IndexRecord) bool {
		_, ok := remove[r.ID]
		return ok
	})
	return nil
}

// Len returns the number of stored records.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.records)
}

// Dimension returns the fixed vector length, or 0 before the first insert.
func (i *Index) Dimension() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.dim
}

// Close releases the stored records.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	i.records = nil
	return nil
}
