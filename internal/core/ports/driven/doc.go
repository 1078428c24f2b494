// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Pipeline Interfaces
//
//   - Tokenizer: Encodes text to tokens and back (tiktoken, whitespace)
//   - EmbeddingService: Maps batches of text to vectors (OpenAI, Ollama)
//   - VectorIndex: Stores vectors and answers k-nearest-neighbour queries (memory, SQLite, pgvector)
//   - LLMService: Generates a reply from role-tagged messages (OpenAI, Anthropic, Ollama)
//
// # Ingestion Boundary
//
//   - Connector: Fetches raw documents from a source (filesystem)
//   - Reader: Extracts text from one document format
//   - ReaderRegistry: Dispatches a raw document to its reader
//
// # Supporting Interfaces
//
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or reader package
package driven
