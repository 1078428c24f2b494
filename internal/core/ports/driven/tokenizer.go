package driven

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// Tokenizer converts text to model tokens and back.
// The vocabulary should match the embedding model so chunk sizes are
// meaningful against the model's input limit.
type Tokenizer interface {
	// Encode returns the token sequence for text.
	Encode(text string) []int

	// Decode returns the text for a token sequence.
	Decode(tokens []int) string

	// Name identifies the tokenizer and encoding (e.g. "tiktoken/cl100k_base").
	Name() string
}

// Chunker splits a document into token-bounded chunks.
type Chunker interface {
	// Chunk returns the document's chunks in order. A document with no
	// tokens yields no chunks and no error.
	Chunk(doc domain.Document) ([]domain.Chunk, error)
}
