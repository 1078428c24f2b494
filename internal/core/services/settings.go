package services

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyChunkSize         = "chunking.size"
	KeyChunkOverlap      = "chunking.overlap"
	KeyTopK              = "retrieval.top_k"
	KeyTokenizerName     = "tokenizer.name"
	KeyTokenizerEncoding = "tokenizer.encoding"
	KeyEmbedProvider     = "embedding.provider"
	KeyEmbedModel        = "embedding.model"
	KeyEmbedBaseURL      = "embedding.base_url"
	KeyEmbedAPIKey       = "embedding.api_key"
	KeyEmbedBatchSize    = "embedding.batch_size"
	KeyEmbedRPS          = "embedding.requests_per_second"
	KeyEmbedDimensions   = "embedding.dimensions"
	KeyLLMProvider       = "llm.provider"
	KeyLLMModel          = "llm.model"
	KeyLLMBaseURL        = "llm.base_url"
	KeyLLMAPIKey         = "llm.api_key"
	KeyVectorBackend     = "vector_index.backend"
	KeyVectorPath        = "vector_index.path"
	KeyVectorDSN         = "vector_index.dsn"
	KeyProviderTimeout   = "provider.timeout"
	KeyRetryMaxAttempts  = "retry.max_attempts"
	KeyRetryInitial      = "retry.initial_backoff"
	KeyRetryMax          = "retry.max_backoff"
	KeyIngestConcurrency = "ingest.concurrency"
)

// SettingKeys returns every recognised config key in display order.
func SettingKeys() []string {
	return []string{
		KeyChunkSize, KeyChunkOverlap, KeyTopK,
		KeyTokenizerName, KeyTokenizerEncoding,
		KeyEmbedProvider, KeyEmbedModel, KeyEmbedBaseURL, KeyEmbedAPIKey,
		KeyEmbedBatchSize, KeyEmbedRPS, KeyEmbedDimensions,
		KeyLLMProvider, KeyLLMModel, KeyLLMBaseURL, KeyLLMAPIKey,
		KeyVectorBackend, KeyVectorPath, KeyVectorDSN,
		KeyProviderTimeout,
		KeyRetryMaxAttempts, KeyRetryInitial, KeyRetryMax,
		KeyIngestConcurrency,
	}
}

// IsSecretKey reports whether key holds a credential that should be masked.
func IsSecretKey(key string) bool {
	return key == KeyEmbedAPIKey || key == KeyLLMAPIKey
}

// SettingsService maps config keys onto domain.AppSettings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings. Missing or invalid values
// fall back to defaults; empty API keys fall back to the provider's
// environment variable.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	embedProvider := s.getProvider(KeyEmbedProvider, d.Embedding.Provider)
	llmProvider := s.getProvider(KeyLLMProvider, d.LLM.Provider)

	settings := &domain.AppSettings{
		Chunking: domain.ChunkSettings{
			Size:    s.getInt(KeyChunkSize, d.Chunking.Size),
			Overlap: s.getIntAllowZero(KeyChunkOverlap, d.Chunking.Overlap),
		},
		Tokenizer: domain.TokenizerSettings{
			Name:     s.getString(KeyTokenizerName, d.Tokenizer.Name),
			Encoding: s.getString(KeyTokenizerEncoding, d.Tokenizer.Encoding),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          embedProvider,
			Model:             s.getString(KeyEmbedModel, defaultModel(domain.DefaultEmbeddingModels(), embedProvider, d.Embedding.Model)),
			BaseURL:           s.configStore.GetString(KeyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.apiKey(KeyEmbedAPIKey, embedProvider),
			Dimensions:        s.configStore.GetInt(KeyEmbedDimensions),
			BatchSize:         s.configStore.GetInt(KeyEmbedBatchSize),
			RequestsPerSecond: s.configStore.GetFloat(KeyEmbedRPS),
		},
		LLM: domain.LLMSettings{
			Provider: llmProvider,
			Model:    s.getString(KeyLLMModel, defaultModel(domain.DefaultLLMModels(), llmProvider, d.LLM.Model)),
			BaseURL:  s.configStore.GetString(KeyLLMBaseURL),
			APIKey:   s.apiKey(KeyLLMAPIKey, llmProvider),
		},
		VectorIndex: domain.VectorIndexSettings{
			Backend: s.getBackend(d.VectorIndex.Backend),
			Path:    s.configStore.GetString(KeyVectorPath),
			DSN:     s.configStore.GetString(KeyVectorDSN),
		},
		Retry: domain.RetrySettings{
			MaxAttempts:    s.getInt(KeyRetryMaxAttempts, d.Retry.MaxAttempts),
			InitialBackoff: s.getDuration(KeyRetryInitial, d.Retry.InitialBackoff),
			MaxBackoff:     s.getDuration(KeyRetryMax, d.Retry.MaxBackoff),
		},
		TopK:              s.getInt(KeyTopK, d.TopK),
		ProviderTimeout:   s.getDuration(KeyProviderTimeout, d.ProviderTimeout),
		IngestConcurrency: s.getInt(KeyIngestConcurrency, d.IngestConcurrency),
	}

	return settings, nil
}

// Save persists application settings. API keys are only written when set,
// so keys taken from the environment are not copied into the file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{KeyChunkSize, settings.Chunking.Size},
		{KeyChunkOverlap, settings.Chunking.Overlap},
		{KeyTopK, settings.TopK},
		{KeyTokenizerName, settings.Tokenizer.Name},
		{KeyTokenizerEncoding, settings.Tokenizer.Encoding},
		{KeyEmbedProvider, settings.Embedding.Provider.String()},
		{KeyEmbedModel, settings.Embedding.Model},
		{KeyEmbedBaseURL, settings.Embedding.BaseURL},
		{KeyEmbedBatchSize, settings.Embedding.BatchSize},
		{KeyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{KeyEmbedDimensions, settings.Embedding.Dimensions},
		{KeyLLMProvider, settings.LLM.Provider.String()},
		{KeyLLMModel, settings.LLM.Model},
		{KeyLLMBaseURL, settings.LLM.BaseURL},
		{KeyVectorBackend, settings.VectorIndex.Backend.String()},
		{KeyVectorPath, settings.VectorIndex.Path},
		{KeyVectorDSN, settings.VectorIndex.DSN},
		{KeyProviderTimeout, settings.ProviderTimeout.String()},
		{KeyRetryMaxAttempts, settings.Retry.MaxAttempts},
		{KeyRetryInitial, settings.Retry.InitialBackoff.String()},
		{KeyRetryMax, settings.Retry.MaxBackoff.String()},
		{KeyIngestConcurrency, settings.IngestConcurrency},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Embedding.APIKey != "" && settings.Embedding.APIKey != s.envKey(settings.Embedding.Provider) {
		if err := s.configStore.Set(KeyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", KeyEmbedAPIKey, err)
		}
	}
	if settings.LLM.APIKey != "" && settings.LLM.APIKey != s.envKey(settings.LLM.Provider) {
		if err := s.configStore.Set(KeyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", KeyLLMAPIKey, err)
		}
	}

	return nil
}

// Set stores one key. Unknown keys and values that leave the settings
// invalid are rejected and the previous value is restored.
func (s *SettingsService) Set(key string, value any) error {
	if !slices.Contains(SettingKeys(), key) {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidArgument, key)
	}

	previous, existed := s.configStore.Get(key)
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	if err := s.check(key); err != nil {
		if existed {
			_ = s.configStore.Set(key, previous)
		} else {
			_ = s.configStore.Set(key, "")
		}
		return err
	}
	return nil
}

// check validates the key that was just written.
func (s *SettingsService) check(key string) error {
	switch key {
	case KeyEmbedProvider, KeyLLMProvider:
		allowed := domain.AllLLMProviders()
		if key == KeyEmbedProvider {
			allowed = domain.AllEmbeddingProviders()
		}
		if p := domain.AIProvider(s.configStore.GetString(key)); !slices.Contains(allowed, p) {
			return fmt.Errorf("%w: %s must be one of %v, got %q", domain.ErrInvalidArgument, key, allowed, p)
		}
	case KeyVectorBackend:
		if b := domain.VectorBackend(s.configStore.GetString(key)); !b.IsValid() {
			return fmt.Errorf("%w: unknown vector backend %q", domain.ErrInvalidArgument, b)
		}
	case KeyProviderTimeout, KeyRetryInitial, KeyRetryMax:
		if _, ok := s.configStore.Get(key); ok && s.configStore.GetDuration(key) <= 0 {
			return fmt.Errorf("%w: %s must be a positive duration", domain.ErrInvalidArgument, key)
		}
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

func (s *SettingsService) envKey(p domain.AIProvider) string {
	if env := p.APIKeyEnv(); env != "" {
		return s.getenv(env)
	}
	return ""
}

func (s *SettingsService) apiKey(key string, p domain.AIProvider) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return s.envKey(p)
}

// getString retrieves a string with a default.
func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

// getInt retrieves a positive int with a default.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if val := s.configStore.GetInt(key); val > 0 {
		return val
	}
	return defaultVal
}

// getIntAllowZero is getInt for keys where an explicit 0 is meaningful.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if raw, ok := s.configStore.Get(key); ok && raw != "" {
		if val := s.configStore.GetInt(key); val >= 0 {
			return val
		}
	}
	return defaultVal
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := s.configStore.GetDuration(key); val > 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	if p := domain.AIProvider(s.configStore.GetString(key)); p.IsValid() {
		return p
	}
	return defaultVal
}

func (s *SettingsService) getBackend(defaultVal domain.VectorBackend) domain.VectorBackend {
	if b := domain.VectorBackend(s.configStore.GetString(KeyVectorBackend)); b.IsValid() {
		return b
	}
	return defaultVal
}

// defaultModel picks the provider's default model when none is configured.
func defaultModel(models map[domain.AIProvider]string, p domain.AIProvider, fallback string) string {
	if m, ok := models[p]; ok {
		return m
	}
	return fallback
}
