// Package ai builds the embedding and LLM adapters named in settings.
package ai

import (
	"context"
	"errors"
	"fmt"

	ollamaembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

type (
	embeddingConstructor func(*domain.EmbeddingSettings) (driven.EmbeddingService, error)
	llmConstructor       func(*domain.LLMSettings) (driven.LLMService, error)
)

var embeddingProviders = map[domain.AIProvider]embeddingConstructor{
	domain.AIProviderOllama: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return createOllamaEmbedding(s), nil
	},
	domain.AIProviderOpenAI: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     s.APIKey,
			BaseURL:    s.BaseURL,
			Model:      s.Model,
			Dimensions: s.Dimensions,
		})
	},
}

var llmProviders = map[domain.AIProvider]llmConstructor{
	domain.AIProviderOllama: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: s.BaseURL, Model: s.Model}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return openaillm.NewLLMService(openaillm.LLMConfig{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
	domain.AIProviderAnthropic: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return anthropicllm.NewLLMService(anthropicllm.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
}

func createOllamaEmbedding(s *domain.EmbeddingSettings) *ollamaembed.EmbeddingService {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:      s.BaseURL,
		Model:        s.Model,
		Dimensions:   ollamaDimensions(s),
		MaxBatchSize: s.BatchSize,
	})
}

// ollamaDimensions prefers the configured width, then the known width of
// the model, then the adapter default.
func ollamaDimensions(s *domain.EmbeddingSettings) int {
	if s.Dimensions > 0 {
		return s.Dimensions
	}
	if d := domain.EmbeddingDimensions()[s.Model]; d > 0 {
		return d
	}
	return ollamaembed.DefaultDimensions
}

// InitResult holds the adapters the pipeline is built from.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	VectorIndex      driven.VectorIndex
	Warnings         []string // Providers left unset because they are not configured.
}

// Close releases every adapter that was opened.
func (r *InitResult) Close() {
	for _, c := range []interface{ Close() error }{r.EmbeddingService, r.VectorIndex, r.LLMService} {
		if c != nil {
			_ = c.Close()
		}
	}
}

// Init opens the vector index and creates both providers from settings.
// An unconfigured provider is left nil with a warning, so commands that
// do not need it still run; the pipeline reports
// domain.ErrProviderNotConfigured when it is used. A misconfigured
// provider or an index that cannot be opened is an error.
func Init(ctx context.Context, settings domain.AppSettings) (*InitResult, error) {
	index, err := vector.New(ctx, settings.VectorIndex)
	if err != nil {
		return nil, err
	}
	result := &InitResult{VectorIndex: index}

	if result.EmbeddingService, err = CreateEmbeddingService(&settings.Embedding); err != nil {
		result.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if result.EmbeddingService == nil {
		result.Warnings = append(result.Warnings, unconfiguredWarning("embedding", settings.Embedding.Provider))
	}

	if result.LLMService, err = CreateLLMService(&settings.LLM); err != nil {
		result.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}
	if result.LLMService == nil {
		result.Warnings = append(result.Warnings, unconfiguredWarning("llm", settings.LLM.Provider))
	}

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result, nil
}

func unconfiguredWarning(kind string, provider domain.AIProvider) string {
	if env := provider.APIKeyEnv(); env != "" {
		return fmt.Sprintf("%s provider %s has no API key; set %s or run 'sercha-rag config set %s.api_key <key>'",
			kind, provider, env, kind)
	}
	return fmt.Sprintf("%s provider %q is not configured", kind, provider)
}

// CreateEmbeddingService returns the adapter for settings.Provider, or nil
// when the provider is not configured. A positive RequestsPerSecond wraps
// it in a rate limiter.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, errors.New("anthropic does not support embeddings, use ollama or openai")
	}
	build, ok := embeddingProviders[settings.Provider]
	if !ok && settings.Provider != "" {
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := build(settings)
	if err != nil {
		return nil, err
	}
	if settings.RequestsPerSecond > 0 {
		limiter := ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerSecond: settings.RequestsPerSecond,
			Burst:             1,
		})
		svc = ratelimit.WrapEmbedding(svc, limiter)
	}
	return svc, nil
}

// CreateLLMService returns the adapter for settings.Provider, or nil when
// the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, nil
	}
	build, ok := llmProviders[settings.Provider]
	if !ok && settings.Provider != "" {
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, nil
	}
	svc, err := build(settings)
	if err != nil {
		return nil, err
	}
	return svc, nil
}
