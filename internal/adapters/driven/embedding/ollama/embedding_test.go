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
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewEmbeddingService(Config{BaseURL: server.URL})
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 768, svc.Dimensions())
	assert.Equal(t, DefaultMaxBatchSize, svc.MaxBatchSize())
	assert.Equal(t, DefaultBaseURL, svc.api.BaseURL())
}

func TestNewEmbeddingService_KnownModelDimensions(t *testing.T) {
	svc := NewEmbeddingService(Config{Model: "mxbai-embed-large", MaxBatchSize: 4})

	assert.Equal(t, 1024, svc.Dimensions())
	assert.Equal(t, 4, svc.MaxBatchSize())
}

func TestEmbeddingService_EmbedBatch(t *testing.T) {
	var got embedRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"nomic-embed-text","embeddings":[[1,2],[3,4]]}`))
	})

	vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}, {3, 4}}, vectors)
	assert.Equal(t, embedRequest{Model: "nomic-embed-text", Input: []string{"a", "b"}}, got)
}

func TestEmbeddingService_EmbedBatch_Empty(t *testing.T) {
	svc := newTestService(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	})

	vectors, err := svc.EmbedBatch(context.Background(), []string{})

	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestEmbeddingService_EmbedBatch_ModelMissing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"nomic-embed-text\" not found"}`))
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"a"})

	assert.ErrorContains(t, err, "ollama: API returned status 404")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestEmbeddingService_EmbedBatch_RateLimited(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"a"})

	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestEmbeddingService_EmbedBatch_Unreachable(t *testing.T) {
	svc := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})

	_, err := svc.EmbedBatch(context.Background(), []string{"a"})

	assert.ErrorContains(t, err, "ollama: send request")
}

func TestEmbeddingService_Ping(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	})

	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}

func TestEmbeddingService_Ping_Failure(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	assert.ErrorContains(t, svc.Ping(context.Background()), "status 500")
}
