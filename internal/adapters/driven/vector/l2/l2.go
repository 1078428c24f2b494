// Package l2 holds the Euclidean distance and ranking shared by the
// vector index adapters.
package l2

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Distance returns the Euclidean distance between a and b.
// The vectors must have equal length.
func Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Candidate is a scored record awaiting ranking.
type Candidate struct {
	// Seq is the insertion order; lower wins ties.
	Seq      uint64
	Text     string
	Distance float64
}

// TopK orders candidates by ascending distance, then insertion order,
// and returns at most k passages. It reorders candidates in place.
func TopK(candidates []Candidate, k int) []domain.Passage {
	slices.SortFunc(candidates, func(a, b Candidate) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})

	n := min(k, len(candidates))
	passages := make([]domain.Passage, n)
	for i := 0; i < n; i++ {
		passages[i] = domain.Passage{Text: candidates[i].Text, Distance: candidates[i].Distance}
	}
	return passages
}

// CheckEntries validates an insertion batch against the index dimension.
// dim is 0 for an empty index; the returned dimension is the one the
// index has after the batch.
func CheckEntries(dim int, entries []domain.IndexEntry) (int, error) {
	for i := range entries {
		n := len(entries[i].Vector)
		if n == 0 {
			return dim, fmt.Errorf("%w: entry %d has an empty vector", domain.ErrInvalidArgument, i)
		}
		if dim == 0 {
			dim = n
			continue
		}
		if n != dim {
			return dim, fmt.Errorf("%w: entry %d has %d dimensions, index has %d", domain.ErrDimensionMismatch, i, n, dim)
		}
	}
	return dim, nil
}

// CheckQuery validates a search request against the index dimension.
func CheckQuery(dim int, query []float32, k int) error {
	if k <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	if dim != 0 && len(query) != dim {
		return fmt.Errorf("%w: query has %d dimensions, index has %d", domain.ErrDimensionMismatch, len(query), dim)
	}
	return nil
}
