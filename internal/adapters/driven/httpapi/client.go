// Package httpapi is the JSON-over-HTTP client shared by the embedding and
// LLM adapters. Status codes are mapped onto domain errors so that the
// retry policy can tell transient failures from final ones.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 4 << 10

// Client talks to one provider's API.
type Client struct {
	provider string
	baseURL  string
	http     *http.Client
	header   http.Header
	message  func(body []byte) string
}

// Option configures a Client.
type Option func(*Client)

// WithHeader sends key: value on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header.Set(key, value)
	}
}

// WithErrorMessage extracts a readable message from an error response body.
// An empty result falls back to the raw body.
func WithErrorMessage(fn func(body []byte) string) Option {
	return func(c *Client) {
		c.message = fn
	}
}

// New creates a client for provider rooted at baseURL.
func New(provider, baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		header:   make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostJSON sends in as JSON to path and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.provider, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	if err := c.check(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", c.provider, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.provider, err)
	}
	return nil
}

// Ping issues a GET to path and reports whether it succeeded.
func (c *Client) Ping(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: failed to create ping request: %w", c.provider, err)
	}

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("%s: ping failed: %w", c.provider, err)
	}
	defer resp.Body.Close()

	if err := c.check(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	for key, values := range c.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	return c.http.Do(req)
}

// check turns a non-2xx response into an error.
func (c *Client) check(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &domain.RateLimitError{
			Provider:   c.provider,
			RetryAfter: domain.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s: API returned status %d (failed to read body: %w)", c.provider, resp.StatusCode, err)
	}

	statusErr := &StatusError{Provider: c.provider, StatusCode: resp.StatusCode, Body: string(body)}
	if c.message != nil {
		statusErr.Message = c.message(body)
	}
	return statusErr
}

// BaseURL returns the URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.http.Timeout
}
