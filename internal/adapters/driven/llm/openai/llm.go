// Package openai provides an LLM service adapter using OpenAI API.
package openai

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Any OpenAI-compatible endpoint works.
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService answers conversations with /chat/completions.
type LLMService struct {
	api   *httpapi.Client
	model string
}

type completionRequest struct {
	Model       string          `json:"model"`
	Messages    []completionMsg `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type completionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message      completionMsg `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		api: httpapi.New("openai", cfg.BaseURL, cfg.Timeout,
			httpapi.WithHeader("Authorization", "Bearer "+cfg.APIKey),
			httpapi.WithErrorMessage(httpapi.ErrorObjectMessage),
		),
		model: cfg.Model,
	}, nil
}

// Chat returns the first choice for the conversation.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := completionRequest{
		Model:       s.model,
		Messages:    make([]completionMsg, len(messages)),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	for i, msg := range messages {
		req.Messages[i] = completionMsg{Role: msg.Role, Content: msg.Content}
	}

	var resp completionResponse
	if err := s.api.PostJSON(ctx, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no response choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/models")
}

// Close releases idle connections.
func (s *LLMService) Close() error {
	s.api.Close()
	return nil
}
