package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(Config{APIKey: "ant-test", BaseURL: server.URL})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.EqualError(t, err, "anthropic: API key is required")
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc, err := NewLLMService(Config{APIKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.api.BaseURL())
}

func TestSplitSystem(t *testing.T) {
	system, messages := splitSystem([]driven.ChatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "system", Content: "cats sleep"},
		{Role: "user", Content: "what do cats do?"},
	})

	assert.Equal(t, "be brief\n\ncats sleep", system)
	assert.Equal(t, []message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "what do cats do?"},
	}, messages)
}

func TestLLMService_Chat(t *testing.T) {
	var got messagesRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"content":[
			{"type":"text","text":"Cats "},
			{"type":"tool_use","text":"ignored"},
			{"type":"text","text":"sleep."}
		],"stop_reason":"end_turn"}`))
	})

	reply, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "cats sleep"},
		{Role: "user", Content: "what do cats do?"},
	}, driven.ChatOptions{})

	require.NoError(t, err)
	assert.Equal(t, "Cats sleep.", reply)
	assert.Equal(t, "cats sleep", got.System)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	assert.Equal(t, []message{{Role: "user", Content: "what do cats do?"}}, got.Messages)
}

func TestLLMService_Chat_APIError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens too large"}}`))
	})

	_, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})

	assert.EqualError(t, err, "anthropic: max_tokens too large (invalid_request_error)")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestLLMService_Chat_EmptyContent(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	})

	_, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})

	assert.EqualError(t, err, "anthropic: no response content returned")
}

func TestLLMService_Chat_RateLimited(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})

	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.EqualError(t, err, "anthropic: rate limited")
}

func TestLLMService_Ping(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, "ant-test", r.Header.Get("x-api-key"))
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}
