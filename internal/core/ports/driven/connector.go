package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Connector fetches raw documents from a data source.
type Connector interface {
	// SourceID returns the configured source ID.
	SourceID() string

	// FullSync fetches all documents from the source.
	// Both channels are closed when the sync finishes.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch listens for changes until ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}
