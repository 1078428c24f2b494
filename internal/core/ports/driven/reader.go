package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Reader extracts text from one document format.
type Reader interface {
	// Format returns the format this reader handles.
	Format() domain.DocumentFormat

	// Read converts a raw document into a Document with Text populated.
	Read(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// ReaderRegistry resolves a raw document's format once and dispatches it
// to the matching reader.
type ReaderRegistry interface {
	// Read reads raw with the reader for its format.
	// Returns domain.ErrUnsupportedFormat when no reader is registered.
	Read(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)

	// Register adds a reader, replacing any reader of the same format.
	Register(reader Reader)

	// Formats returns the registered formats.
	Formats() []domain.DocumentFormat
}
