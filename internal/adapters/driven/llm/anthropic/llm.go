// Package anthropic provides an LLM service adapter using Anthropic API.
package anthropic

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024

	anthropicVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the LLM model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService answers conversations with the Messages API.
type LLMService struct {
	api   *httpapi.Client
	model string
}

type messagesRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
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

	return &LLMService{
		api: httpapi.New("anthropic", cfg.BaseURL, cfg.Timeout,
			httpapi.WithHeader("x-api-key", cfg.APIKey),
			httpapi.WithHeader("anthropic-version", anthropicVersion),
			httpapi.WithErrorMessage(httpapi.ErrorObjectMessage),
		),
		model: cfg.Model,
	}, nil
}

// splitSystem moves system turns out of the message list. The Messages
// API takes them as a single top-level field; several are joined by a
// blank line in conversation order.
func splitSystem(messages []driven.ChatMessage) (string, []message) {
	var system []string
	rest := make([]message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == string(domain.RoleSystem) {
			system = append(system, msg.Content)
			continue
		}
		rest = append(rest, message{Role: msg.Role, Content: msg.Content})
	}
	return strings.Join(system, "\n\n"), rest
}

// Chat returns the concatenated text blocks of the reply.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	system, rest := splitSystem(messages)

	// max_tokens is mandatory on this API.
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	req := messagesRequest{
		Model:       s.model,
		Messages:    rest,
		MaxTokens:   maxTokens,
		System:      system,
		Temperature: opts.Temperature,
	}

	var resp messagesResponse
	if err := s.api.PostJSON(ctx, "/v1/messages", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", errors.New("anthropic: no response content returned")
	}

	var reply strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			reply.WriteString(block.Text)
		}
	}
	return reply.String(), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx, "/v1/models")
}

// Close releases idle connections.
func (s *LLMService) Close() error {
	s.api.Close()
	return nil
}
