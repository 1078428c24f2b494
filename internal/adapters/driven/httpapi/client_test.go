package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

type echo struct {
	Text string `json:"text"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New("acme", server.URL, 5*time.Second, opts...)
}

func TestClient_PostJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/echo", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Key"))

		var in echo
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(echo{Text: strings.ToUpper(in.Text)})
	}, WithHeader("X-Key", "secret"))

	var out echo
	err := client.PostJSON(context.Background(), "/v1/echo", echo{Text: "purr"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "PURR", out.Text)
}

func TestClient_PostJSON_DecodeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	var out echo
	err := client.PostJSON(context.Background(), "/", echo{}, &out)

	assert.ErrorContains(t, err, "acme: decode response")
}

func TestClient_PostJSON_Unreachable(t *testing.T) {
	client := New("acme", "http://127.0.0.1:1", time.Second)

	var out echo
	err := client.PostJSON(context.Background(), "/", echo{}, &out)

	assert.ErrorContains(t, err, "acme: send request")
}

func TestClient_RateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	var out echo
	err := client.PostJSON(context.Background(), "/", echo{}, &out)

	require.ErrorIs(t, err, domain.ErrRateLimited)
	var rl *domain.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, "acme", rl.Provider)
	assert.Equal(t, 3*time.Second, rl.RetryAfter)
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, domain.ErrInvalidArgument},
		{http.StatusUnauthorized, domain.ErrProviderNotConfigured},
		{http.StatusForbidden, domain.ErrProviderNotConfigured},
		{http.StatusNotFound, domain.ErrInvalidArgument},
		{http.StatusRequestEntityTooLarge, domain.ErrInvalidArgument},
		{http.StatusUnprocessableEntity, domain.ErrInvalidArgument},
		{http.StatusInternalServerError, nil},
		{http.StatusBadGateway, nil},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("nope"))
			})

			var out echo
			err := client.PostJSON(context.Background(), "/", echo{}, &out)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, "nope", statusErr.Body)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			} else {
				assert.NotErrorIs(t, err, domain.ErrInvalidArgument)
				assert.NotErrorIs(t, err, domain.ErrProviderNotConfigured)
			}
		})
	}
}

func TestClient_ErrorMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"context too long","type":"invalid_request_error"}}`))
	}, WithErrorMessage(ErrorObjectMessage))

	var out echo
	err := client.PostJSON(context.Background(), "/", echo{}, &out)

	assert.EqualError(t, err, "acme: context too long (invalid_request_error)")
}

func TestClient_ErrorBodyIsBounded(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 3*maxErrorBody)))
	})

	var out echo
	err := client.PostJSON(context.Background(), "/", echo{}, &out)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Len(t, statusErr.Body, maxErrorBody)
}

func TestClient_Ping(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	assert.NoError(t, client.Ping(context.Background(), "/models"))
	client.Close()
}

func TestClient_Ping_Failure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad key"))
	})

	err := client.Ping(context.Background(), "/models")

	assert.EqualError(t, err, "acme: API returned status 401: bad key")
	assert.ErrorIs(t, err, domain.ErrProviderNotConfigured)
}

func TestClient_Ping_Unreachable(t *testing.T) {
	client := New("acme", "http://127.0.0.1:1", time.Second)

	assert.ErrorContains(t, client.Ping(context.Background(), "/"), "acme: ping failed")
}

func TestClient_Accessors(t *testing.T) {
	client := New("acme", "https://api.example.com", 7*time.Second)

	assert.Equal(t, "https://api.example.com", client.BaseURL())
	assert.Equal(t, 7*time.Second, client.Timeout())
}

func TestErrorObjectMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message and type", `{"error":{"message":"bad key","type":"auth"}}`, "bad key (auth)"},
		{"message only", `{"error":{"message":"bad key"}}`, "bad key"},
		{"anthropic envelope", `{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`, "busy (overloaded_error)"},
		{"no error object", `{"detail":"x"}`, ""},
		{"string error", `{"error":"model not found"}`, ""},
		{"not json", "upstream down", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorObjectMessage([]byte(tt.body)))
		})
	}
}
