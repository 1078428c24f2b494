package ollama

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

	return NewLLMService(LLMConfig{BaseURL: server.URL, Model: "mistral"})
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc := NewLLMService(LLMConfig{})

	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.api.BaseURL())
	assert.Equal(t, DefaultLLMTimeout, svc.api.Timeout())
}

func TestLLMService_Chat(t *testing.T) {
	var got chatRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"Cats sleep."},"done":true}`))
	})

	reply, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "cats sleep"},
		{Role: "user", Content: "what do cats do?"},
	}, driven.ChatOptions{})

	require.NoError(t, err)
	assert.Equal(t, "Cats sleep.", reply)
	assert.Equal(t, "mistral", got.Model)
	assert.False(t, got.Stream)
	assert.Nil(t, got.Options)
	assert.Len(t, got.Messages, 2)
}

func TestLLMService_Chat_Options(t *testing.T) {
	var got chatRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"ok"},"done":true}`))
	})

	_, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}},
		driven.ChatOptions{MaxTokens: 50, Temperature: 0.5})

	require.NoError(t, err)
	require.NotNil(t, got.Options)
	assert.Equal(t, 50, got.Options.NumPredict)
	assert.InDelta(t, 0.5, got.Options.Temperature, 1e-9)
}

func TestLLMService_Chat_ModelMissing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"mistral\" not found"}`))
	})

	_, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama: API returned status 404")
}

func TestLLMService_Chat_RateLimited(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})

	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestLLMService_Ping(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	})

	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}

func TestLLMService_Ping_Unreachable(t *testing.T) {
	svc := NewLLMService(LLMConfig{BaseURL: "http://127.0.0.1:1"})

	err := svc.Ping(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama: ping failed")
}
