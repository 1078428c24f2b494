package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Domain errors represent pipeline failures.
// Callers match them with errors.Is; adapters wrap them with the cause.
var (
	// ErrInvalidArgument indicates a caller error such as a bad chunk size,
	// overlap or top-k value. It is never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// dimension fixed by the first vector inserted into an index.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding provider failed or
	// returned a different number of vectors than inputs.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the generation model call failed.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrTimeout indicates a provider call exceeded the configured deadline.
	ErrTimeout = errors.New("provider timeout")

	// ErrUnsupportedFormat indicates no reader handles a document's format.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyDocument indicates a document with no tokens to index.
	ErrEmptyDocument = errors.New("document has no text")

	// ErrRateLimited indicates the provider rejected a call with a rate limit.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderNotConfigured indicates a missing or unknown AI provider.
	ErrProviderNotConfigured = errors.New("provider not configured")
)

// RateLimitError is returned by providers answering HTTP 429.
// It matches ErrRateLimited with errors.Is.
type RateLimitError struct {
	// Provider names the rejecting service.
	Provider string

	// RetryAfter is the server-suggested wait, zero if none was given.
	RetryAfter time.Duration
}

// Error implements error.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Provider, e.RetryAfter)
	}
	return e.Provider + ": rate limited"
}

// Unwrap returns ErrRateLimited.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// ParseRetryAfter reads a Retry-After header value given in seconds.
// Other forms yield zero.
func ParseRetryAfter(value string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
