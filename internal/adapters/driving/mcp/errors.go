// Package mcp provides an MCP (Model Context Protocol) server adapter for sercha-rag.
// It lets AI assistants retrieve passages from the index, add documents to
// it, and ask questions answered with retrieved context.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
