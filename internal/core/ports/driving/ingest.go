package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// IngestService chunks, embeds and indexes documents.
type IngestService interface {
	// Ingest indexes documents. The report is always returned; the error
	// joins per-document failures. Documents that succeeded stay indexed.
	Ingest(ctx context.Context, docs []domain.Document) (*domain.IngestReport, error)

	// IngestRaw reads raw documents with the reader registry, then ingests
	// them. Read failures are reported like any other document failure.
	IngestRaw(ctx context.Context, raws []domain.RawDocument) (*domain.IngestReport, error)
}
