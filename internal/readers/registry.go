package readers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/readers/docx"
	"github.com/custodia-labs/sercha-rag/internal/readers/pdf"
	"github.com/custodia-labs/sercha-rag/internal/readers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.ReaderRegistry = (*Registry)(nil)

// Registry dispatches raw documents to readers by format.
type Registry struct {
	mu      sync.RWMutex
	readers map[domain.DocumentFormat]driven.Reader
}

// NewRegistry creates a registry holding readers.
func NewRegistry(readers ...driven.Reader) *Registry {
	r := &Registry{readers: make(map[domain.DocumentFormat]driven.Reader)}
	for _, reader := range readers {
		r.Register(reader)
	}
	return r
}

// Default returns a registry with the plaintext, PDF and DOCX readers.
func Default() *Registry {
	return NewRegistry(plaintext.New(), pdf.New(), docx.New())
}

// Register adds a reader, replacing any reader of the same format.
func (r *Registry) Register(reader driven.Reader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readers[reader.Format()] = reader
}

// Read reads raw with the reader for its format.
func (r *Registry) Read(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: raw document is nil", domain.ErrInvalidArgument)
	}

	format := raw.Format()

	r.mu.RLock()
	reader, ok := r.readers[format]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedFormat, raw.URI, describe(raw, format))
	}

	doc, err := reader.Read(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("read %s as %s: %w", raw.URI, format, err)
	}
	return doc, nil
}

// Formats returns the registered formats in sorted order.
func (r *Registry) Formats() []domain.DocumentFormat {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]domain.DocumentFormat, 0, len(r.readers))
	for f := range r.readers {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

func describe(raw *domain.RawDocument, format domain.DocumentFormat) string {
	if format != domain.FormatUnknown {
		return "no reader for " + format.String()
	}
	if raw.MIMEType != "" {
		return "mime type " + raw.MIMEType
	}
	return "unknown format"
}
