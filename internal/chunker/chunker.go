// Package chunker splits document text into token-bounded, overlapping chunks.
package chunker

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// Chunker splits text on token boundaries of a Tokenizer.
type Chunker struct {
	tokenizer driven.Tokenizer
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum tokens per chunk.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the tokens shared by consecutive chunks.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a chunker. Invalid sizes fail with domain.ErrInvalidArgument
// rather than being adjusted.
func New(tokenizer driven.Tokenizer, opts ...Option) (*Chunker, error) {
	if tokenizer == nil {
		return nil, fmt.Errorf("%w: tokenizer is required", domain.ErrInvalidArgument)
	}

	c := &Chunker{
		tokenizer: tokenizer,
		chunkSize: domain.DefaultChunkSize,
		overlap:   domain.DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}

	settings := domain.ChunkSettings{Size: c.chunkSize, Overlap: c.overlap}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ChunkSize returns the maximum tokens per chunk.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the tokens shared by consecutive chunks.
func (c *Chunker) Overlap() int { return c.overlap }

// Ranges computes the token ranges for a text of total tokens.
// Starting at 0 it emits [i, i+size) clipped to total, advances by
// size-overlap, and stops after the first range that reaches total.
// A zero total yields no ranges.
func Ranges(total, size, overlap int) ([]domain.TokenRange, error) {
	if err := (domain.ChunkSettings{Size: size, Overlap: overlap}).Validate(); err != nil {
		return nil, err
	}
	if total <= 0 {
		return nil, nil
	}

	step := size - overlap
	ranges := make([]domain.TokenRange, 0, total/step+1)
	for i := 0; ; i += step {
		ranges = append(ranges, domain.TokenRange{Start: i, End: min(i+size, total)})
		if i+size >= total {
			break
		}
	}
	return ranges, nil
}

// Split returns the decoded text of each chunk of text.
func (c *Chunker) Split(text string) ([]string, error) {
	tokens := c.tokenizer.Encode(text)
	ranges, err := Ranges(len(tokens), c.chunkSize, c.overlap)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(ranges))
	for i, r := range ranges {
		texts[i] = c.tokenizer.Decode(tokens[r.Start:r.End])
	}
	return texts, nil
}

// Chunk splits a document into chunks carrying their token ranges.
// A document with no tokens produces no chunks.
func (c *Chunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	tokens := c.tokenizer.Encode(doc.Text)
	ranges, err := Ranges(len(tokens), c.chunkSize, c.overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, len(ranges))
	for i, r := range ranges {
		chunks[i] = domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Source:     doc.Source,
			Text:       c.tokenizer.Decode(tokens[r.Start:r.End]),
			Range:      r,
			Position:   i,
		}
	}
	return chunks, nil
}
