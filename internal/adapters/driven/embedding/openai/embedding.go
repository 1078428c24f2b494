// Package openai provides an embedding service adapter using OpenAI API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultModel      = "text-embedding-3-small"
	DefaultTimeout    = 60 * time.Second
	DefaultDimensions = 1536

	// MaxBatchSize is the API's limit on inputs per request.
	MaxBatchSize = 2048
)

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Any OpenAI-compatible endpoint works.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the HTTP client timeout (default: 60s).
	Timeout time.Duration

	// Dimensions overrides the model's vector size.
	// Only sent for text-embedding-3-* models.
	Dimensions int
}

// EmbeddingService generates embeddings using OpenAI API.
type EmbeddingService struct {
	api        *httpapi.Client
	model      string
	dimensions int

	// shortenable models accept a dimensions parameter.
	shortenable bool
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = DefaultDimensions
		if d, ok := domain.EmbeddingDimensions()[cfg.Model]; ok {
			dimensions = d
		}
	}

	return &EmbeddingService{
		api: httpapi.New("openai", cfg.BaseURL, cfg.Timeout,
			httpapi.WithHeader("Authorization", "Bearer "+cfg.APIKey),
			httpapi.WithErrorMessage(httpapi.ErrorObjectMessage),
		),
		model:       cfg.Model,
		dimensions:  dimensions,
		shortenable: strings.HasPrefix(cfg.Model, "text-embedding-3-"),
	}, nil
}

// EmbedBatch returns one embedding per text, ordered like texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if len(texts) > MaxBatchSize {
		return nil, fmt.Errorf("openai: %w: %d inputs exceeds batch limit %d",
			domain.ErrInvalidArgument, len(texts), MaxBatchSize)
	}

	req := embeddingRequest{Model: s.model, Input: texts}
	if s.shortenable {
		req.Dimensions = s.dimensions
	}

	var resp embeddingResponse
	if err := s.api.PostJSON(ctx, "/embeddings", req, &resp); err != nil {
		return nil, err
	}

	// Results carry their input index; the API does not promise order.
	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", data.Index)
		}
		embeddings[data.Index] = data.Embedding
	}
	for i, e := range embeddings {
		if e == nil {
			return nil, fmt.Errorf("openai: no embedding returned for input %d", i)
		}
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// MaxBatchSize returns the API's input limit per request.
func (s *EmbeddingService) MaxBatchSize() int {
	return MaxBatchSize
}

// Ping lists models, which checks the API key without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/models")
}

// Close releases idle connections.
func (s *EmbeddingService) Close() error {
	s.api.Close()
	return nil
}
