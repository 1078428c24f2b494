// Package domain defines the core entities of the retrieval pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Extracted text plus the source it came from
//   - Chunk: A token-bounded slice of a document
//   - IndexRecord: A stored (id, vector, text) triple
//   - Passage: A retrieved text with its distance to the query
//   - ConversationTurn: One role-tagged message of a chat history
//   - RawDocument: Opaque bytes from a connector, before reading
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
