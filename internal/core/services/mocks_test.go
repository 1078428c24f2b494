package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Vectors come from vectors[text] when present, otherwise from a hash of
// the text.
type mockEmbeddingService struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	dims     int
	maxBatch int
	calls    int
	batches  [][]string

	// failures makes the first n calls fail with failErr.
	failures int
	failErr  error

	// failOn fails every batch containing the substring.
	failOn string

	// short drops the last vector from every response.
	short bool

	// block waits for the context to end before returning.
	block bool
}

func newMockEmbedding() *mockEmbeddingService {
	return &mockEmbeddingService{vectors: map[string][]float32{}, dims: 3}
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.batches = append(m.batches, append([]string(nil), texts...))
	fail := m.failures > 0
	if fail {
		m.failures--
	}
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if fail {
		return nil, m.failErr
	}
	for _, text := range texts {
		if m.failOn != "" && strings.Contains(text, m.failOn) {
			return nil, errors.New("provider rejected input")
		}
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vectorFor(text)
	}
	if m.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbeddingService) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	v := make([]float32, m.dims)
	for i, r := range text {
		v[i%m.dims] += float32(r % 17)
	}
	return v
}

func (m *mockEmbeddingService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockEmbeddingService) Dimensions() int            { return m.dims }
func (m *mockEmbeddingService) ModelName() string          { return "mock-embed" }
func (m *mockEmbeddingService) MaxBatchSize() int          { return m.maxBatch }
func (m *mockEmbeddingService) Ping(context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error               { return nil }

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	mu       sync.Mutex
	reply    string
	err      error
	failures int
	block    bool
	calls    int
	messages [][]driven.ChatMessage
}

func (m *mockLLMService) Chat(ctx context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	m.calls++
	m.messages = append(m.messages, messages)
	fail := m.failures > 0
	if fail {
		m.failures--
	}
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.err != nil {
		return "", m.err
	}
	if fail {
		return "", errors.New("model overloaded")
	}
	return m.reply, nil
}

func (m *mockLLMService) ModelName() string          { return "mock-llm" }
func (m *mockLLMService) Ping(context.Context) error { return nil }
func (m *mockLLMService) Close() error               { return nil }

// mockRetriever implements driving.RetrievalService for testing.
type mockRetriever struct {
	passages []string
	err      error
	queries  []string
	topKs    []int
}

func (m *mockRetriever) Retrieve(_ context.Context, query string, topK int) ([]string, error) {
	m.queries = append(m.queries, query)
	m.topKs = append(m.topKs, topK)
	if m.err != nil {
		return nil, m.err
	}
	return m.passages, nil
}

// mockReaderRegistry implements driven.ReaderRegistry for testing.
// Only plain text is readable.
type mockReaderRegistry struct{}

func (mockReaderRegistry) Read(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw.Format() != domain.FormatPlainText {
		return nil, domain.ErrUnsupportedFormat
	}
	return &domain.Document{
		ID:     raw.URI,
		Source: raw.URI,
		Text:   string(raw.Content),
		Format: domain.FormatPlainText,
	}, nil
}

func (mockReaderRegistry) Register(driven.Reader) {}

func (mockReaderRegistry) Formats() []domain.DocumentFormat {
	return []domain.DocumentFormat{domain.FormatPlainText}
}

// fastRetry retries once without a noticeable wait.
func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}
