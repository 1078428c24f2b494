package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// pingTimeout bounds a single connectivity check.
const pingTimeout = 5 * time.Second

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks that configured providers answer.
type ConfigValidator struct{}

// NewConfigValidator creates a ConfigValidator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding pings the embedding provider in config.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(ctx, config)
}

// ValidateLLM pings the LLM provider in config.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, config *domain.LLMSettings) error {
	return ValidateLLMConfig(ctx, config)
}

// ValidateEmbeddingConfig builds the embedding adapter and pings it.
// An unconfigured provider is not an error.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	return ping(ctx, svc, domain.ErrEmbeddingUnavailable)
}

// ValidateLLMConfig builds the LLM adapter and pings it.
// An unconfigured provider is not an error.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	return ping(ctx, svc, domain.ErrGenerationUnavailable)
}

type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

// ping checks svc and closes it. Failures wrap kind.
func ping(ctx context.Context, svc pinger, kind error) error {
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable (%w)", kind, err)
	}
	return nil
}
