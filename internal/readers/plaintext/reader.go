// Package plaintext reads UTF-8 text documents.
package plaintext

import (
	"context"
	"maps"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.Reader = (*Reader)(nil)

// Reader handles plain text, Markdown and other text/* content.
type Reader struct{}

// New creates a new plain text reader.
func New() *Reader {
	return &Reader{}
}

// Format returns domain.FormatPlainText.
func (r *Reader) Format() domain.DocumentFormat {
	return domain.FormatPlainText
}

// Read uses the bytes as text. Invalid UTF-8 sequences are replaced.
func (r *Reader) Read(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	text := strings.ToValidUTF8(string(raw.Content), "�")

	metadata := maps.Clone(raw.Metadata)
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["title"] = extractTitle(text, raw.URI)
	if raw.MIMEType != "" {
		metadata["mime_type"] = raw.MIMEType
	}

	return &domain.Document{
		ID:       uuid.New().String(),
		Source:   raw.URI,
		Text:     text,
		Format:   domain.FormatPlainText,
		Metadata: metadata,
	}, nil
}

// extractTitle returns the first Markdown H1, or the file name.
func extractTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}

	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
