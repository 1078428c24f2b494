package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/tokenizer/whitespace"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/sercha-rag/internal/chunker"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// setupIngest wires an IngestService with 10-token chunks overlapping by 2.
func setupIngest(t *testing.T, concurrency int) (*IngestService, *mockEmbeddingService, *memory.Index) {
	t.Helper()

	c, err := chunker.New(whitespace.New(), chunker.WithChunkSize(10), chunker.WithOverlap(2))
	require.NoError(t, err)

	svc := newMockEmbedding()
	embedder, err := NewEmbedder(svc, EmbedderOptions{Retry: fastRetry()})
	require.NoError(t, err)

	index := memory.New()
	return NewIngestService(c, embedder, index, mockReaderRegistry{}, concurrency), svc, index
}

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(w, " ")
}

func TestIngestService_Ingest_Success(t *testing.T) {
	s, _, index := setupIngest(t, 2)

	report, err := s.Ingest(context.Background(), []domain.Document{
		{ID: "a", Source: "a.txt", Text: words(25)},
		{ID: "b", Source: "b.txt", Text: words(5)},
	})

	require.NoError(t, err)
	require.Len(t, report.Ingested, 2)
	assert.False(t, report.HasFailures())
	assert.Equal(t, "a", report.Ingested[0].DocumentID)
	assert.Equal(t, 3, report.Ingested[0].Chunks)
	assert.Equal(t, 1, report.Ingested[1].Chunks)
	assert.Equal(t, 4, report.TotalChunks())
	assert.Equal(t, 4, index.Len())
}

func TestIngestService_Ingest_Empty(t *testing.T) {
	s, svc, _ := setupIngest(t, 1)

	report, err := s.Ingest(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, report.Ingested)
	assert.Equal(t, 0, svc.callCount())
}

func TestIngestService_Ingest_AssignsMissingDocumentID(t *testing.T) {
	s, _, _ := setupIngest(t, 1)

	report, err := s.Ingest(context.Background(), []domain.Document{{Source: "x", Text: "some text"}})

	require.NoError(t, err)
	assert.NotEmpty(t, report.Ingested[0].DocumentID)
}

func TestIngestService_Ingest_PartialFailure(t *testing.T) {
	s, svc, index := setupIngest(t, 4)
	svc.failOn = "poison"

	report, err := s.Ingest(context.Background(), []domain.Document{
		{ID: "good", Source: "good.txt", Text: words(12)},
		{ID: "bad", Source: "bad.txt", Text: "this has poison in it"},
		{ID: "empty", Source: "empty.txt", Text: "   "},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)

	require.Len(t, report.Ingested, 1)
	assert.Equal(t, "good.txt", report.Ingested[0].Source)
	require.Len(t, report.Failed, 2)
	assert.Equal(t, "bad.txt", report.Failed[0].Source)
	assert.Equal(t, "empty.txt", report.Failed[1].Source)

	var docErr *domain.DocumentError
	require.True(t, errors.As(err, &docErr))

	// Only the good document's chunks are visible.
	assert.Equal(t, 2, index.Len())
}

func TestIngestService_Ingest_DimensionMismatchFailsOnlyThatDocument(t *testing.T) {
	s, svc, index := setupIngest(t, 1)
	svc.vectors["odd one"] = []float32{1, 2}

	report, err := s.Ingest(context.Background(), []domain.Document{
		{Source: "first", Text: "regular text"},
		{Source: "second", Text: "odd one"},
	})

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Len(t, report.Ingested, 1)
	assert.Equal(t, 1, index.Len())
}

func TestIngestService_Ingest_ConcurrentNoDuplicates(t *testing.T) {
	s, _, index := setupIngest(t, 8)

	docs := make([]domain.Document, 40)
	for i := range docs {
		docs[i] = domain.Document{Source: fmt.Sprintf("doc-%d", i), Text: words(10 + i)}
	}

	report, err := s.Ingest(context.Background(), docs)
	require.NoError(t, err)

	seen := map[uint64]bool{}
	for i, ing := range report.Ingested {
		assert.Equal(t, docs[i].Source, ing.Source, "report keeps input order")
		for _, id := range ing.RecordIDs {
			assert.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
	}
	assert.Equal(t, report.TotalChunks(), index.Len())
	assert.Len(t, seen, index.Len())
}

func TestIngestService_Ingest_CancelledContext(t *testing.T) {
	s, _, index := setupIngest(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := s.Ingest(ctx, []domain.Document{{Source: "a", Text: "text"}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, report.Failed, 1)
	assert.Equal(t, 0, index.Len())
}

func TestIngestService_IngestRaw(t *testing.T) {
	s, _, index := setupIngest(t, 2)

	report, err := s.IngestRaw(context.Background(), []domain.RawDocument{
		{URI: "notes.txt", MIMEType: "text/plain", Content: []byte("cats are mammals")},
		{URI: "image.png", MIMEType: "image/png", Content: []byte{0x89, 0x50}},
		{URI: "readme.md", Content: []byte("rockets use fuel")},
	})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	require.Len(t, report.Ingested, 2)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "image.png", report.Failed[0].Source)
	assert.Equal(t, 2, index.Len())
}

func TestIngestService_IngestRaw_NoReaders(t *testing.T) {
	c, err := chunker.New(whitespace.New())
	require.NoError(t, err)
	embedder, err := NewEmbedder(newMockEmbedding(), EmbedderOptions{})
	require.NoError(t, err)
	s := NewIngestService(c, embedder, memory.New(), nil, 0)

	report, err := s.IngestRaw(context.Background(), []domain.RawDocument{{URI: "a.txt", Content: []byte("x")}})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Len(t, report.Failed, 1)
}
