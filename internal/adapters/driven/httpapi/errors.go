package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// StatusError is a non-2xx provider response other than 429.
type StatusError struct {
	Provider   string
	StatusCode int

	// Body is the start of the response body.
	Body string

	// Message is the provider's own error text, when it could be parsed.
	Message string
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Provider + ": " + e.Message
	}
	return fmt.Sprintf("%s: API returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Unwrap maps statuses that a retry cannot fix onto domain errors.
// Other statuses unwrap to nil and stay retryable.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrProviderNotConfigured
	case http.StatusBadRequest, http.StatusNotFound,
		http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return domain.ErrInvalidArgument
	default:
		return nil
	}
}

// ErrorObjectMessage reads the {"error": {"message", "type"}} body used by
// OpenAI and Anthropic.
func ErrorObjectMessage(body []byte) string {
	var parsed struct {
		Error *struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil || parsed.Error == nil || parsed.Error.Message == "" {
		return ""
	}
	if parsed.Error.Type == "" {
		return parsed.Error.Message
	}
	return fmt.Sprintf("%s (%s)", parsed.Error.Message, parsed.Error.Type)
}
