package mcp

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval returns passages for a query.
	Retrieval driving.RetrievalService

	// Ingest adds documents to the index. Optional; without it the
	// ingest tool is not offered.
	Ingest driving.IngestService

	// Chat answers questions with retrieved context. Optional; without it
	// the ask tool is not offered.
	Chat driving.ChatService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
