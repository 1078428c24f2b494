package driving

import "context"

// RetrievalService returns the passages most relevant to a query.
type RetrievalService interface {
	// Retrieve returns up to topK passage texts, most relevant first.
	Retrieve(ctx context.Context, query string, topK int) ([]string, error)
}
