package domain

import (
	"errors"
	"fmt"
)

// IngestedDocument describes a document that was fully inserted.
type IngestedDocument struct {
	// DocumentID is the document's ID.
	DocumentID string

	// Source is the document's origin tag.
	Source string

	// Chunks is the number of chunks inserted.
	Chunks int

	// RecordIDs are the index IDs assigned to the chunks.
	RecordIDs []uint64
}

// DocumentError ties an ingestion failure to the document that caused it.
type DocumentError struct {
	Source string
	Err    error
}

// Error implements error.
func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *DocumentError) Unwrap() error {
	return e.Err
}

// IngestReport summarises an ingestion batch. Partial success is normal:
// documents in Ingested stay in the index even when others failed.
type IngestReport struct {
	Ingested []IngestedDocument
	Failed   []DocumentError
}

// HasFailures reports whether any document failed.
func (r *IngestReport) HasFailures() bool {
	return len(r.Failed) > 0
}

// TotalChunks returns the number of chunks inserted across all documents.
func (r *IngestReport) TotalChunks() int {
	total := 0
	for i := range r.Ingested {
		total += r.Ingested[i].Chunks
	}
	return total
}

// Err joins the per-document errors, or returns nil when none failed.
func (r *IngestReport) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i := range r.Failed {
		errs[i] = &r.Failed[i]
	}
	return errors.Join(errs...)
}

// Merge appends other's results to r.
func (r *IngestReport) Merge(other *IngestReport) {
	if other == nil {
		return
	}
	r.Ingested = append(r.Ingested, other.Ingested...)
	r.Failed = append(r.Failed, other.Failed...)
}
