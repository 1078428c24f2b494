package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// Pipeline defaults.
const (
	DefaultChunkSize         = 500
	DefaultChunkOverlap      = 50
	DefaultTopK              = 5
	DefaultProviderTimeout   = 30 * time.Second
	DefaultIngestConcurrency = 4
	DefaultRetryAttempts     = 2
	DefaultRetryBackoff      = 500 * time.Millisecond
	DefaultRetryMaxBackoff   = 5 * time.Second
	DefaultTokenizerEncoding = "cl100k_base"
)

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// SupportsEmbeddings returns true if the provider offers an embeddings API.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// APIKeyEnv returns the environment variable consulted for the API key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// ChunkSettings controls how documents are split.
type ChunkSettings struct {
	// Size is the maximum number of tokens per chunk.
	Size int

	// Overlap is the number of tokens shared by consecutive chunks.
	Overlap int
}

// Validate checks 0 <= Overlap < Size.
func (c ChunkSettings) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidArgument, c.Size)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidArgument, c.Size, c.Overlap)
	}
	return nil
}

// TokenizerSettings selects the tokenizer used for chunking.
type TokenizerSettings struct {
	// Name is "tiktoken" or "whitespace".
	Name string

	// Encoding is the tiktoken encoding name (e.g. cl100k_base).
	Encoding string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the embedding vector size. Zero uses the model default.
	Dimensions int

	// BatchSize caps inputs per provider call. Zero uses the provider maximum.
	BatchSize int

	// RequestsPerSecond throttles provider calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendMemory is an in-process brute-force index.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendSQLite stores vectors in SQLite and ranks in process.
	VectorBackendSQLite VectorBackend = "sqlite"

	// VectorBackendPgVector delegates ranking to PostgreSQL with pgvector.
	VectorBackendPgVector VectorBackend = "pgvector"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendSQLite, VectorBackendPgVector:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Backend selects the index implementation.
	Backend VectorBackend

	// Path is the SQLite database file. Empty means in-memory.
	Path string

	// DSN is the PostgreSQL connection string for pgvector.
	DSN string
}

// RetrySettings configures provider call retries.
type RetrySettings struct {
	// MaxAttempts counts the first call. 2 means one retry.
	MaxAttempts int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Chunking    ChunkSettings
	Tokenizer   TokenizerSettings
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	VectorIndex VectorIndexSettings
	Retry       RetrySettings

	// TopK is the number of passages retrieved per query.
	TopK int

	// ProviderTimeout bounds each embedding or generation call.
	ProviderTimeout time.Duration

	// IngestConcurrency bounds how many documents are processed at once.
	IngestConcurrency int
}

// Validate checks values that would make the pipeline misbehave.
func (s AppSettings) Validate() error {
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	if s.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidArgument, s.TopK)
	}
	if s.ProviderTimeout < 0 {
		return fmt.Errorf("%w: provider timeout must not be negative", ErrInvalidArgument)
	}
	if !s.VectorIndex.Backend.IsValid() {
		return fmt.Errorf("%w: unknown vector backend %q", ErrInvalidArgument, s.VectorIndex.Backend)
	}
	return nil
}

// DefaultAppSettings returns settings with sensible defaults.
// Providers default to OpenAI; API keys come from config or environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking: ChunkSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Tokenizer: TokenizerSettings{
			Name:     "tiktoken",
			Encoding: DefaultTokenizerEncoding,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultEmbeddingModels()[AIProviderOpenAI],
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultLLMModels()[AIProviderOpenAI],
		},
		VectorIndex: VectorIndexSettings{
			Backend: VectorBackendMemory,
		},
		Retry: RetrySettings{
			MaxAttempts:    DefaultRetryAttempts,
			InitialBackoff: DefaultRetryBackoff,
			MaxBackoff:     DefaultRetryMaxBackoff,
		},
		TopK:              DefaultTopK,
		ProviderTimeout:   DefaultProviderTimeout,
		IngestConcurrency: DefaultIngestConcurrency,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
