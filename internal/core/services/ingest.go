package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService chunks, embeds and indexes documents.
type IngestService struct {
	chunker     driven.Chunker
	embedder    *Embedder
	index       driven.VectorIndex
	readers     driven.ReaderRegistry
	concurrency int
}

// NewIngestService creates an ingest service writing into index.
// The readers registry is optional; without it IngestRaw fails every
// document with domain.ErrUnsupportedFormat.
func NewIngestService(
	chunker driven.Chunker,
	embedder *Embedder,
	index driven.VectorIndex,
	readers driven.ReaderRegistry,
	concurrency int,
) *IngestService {
	if concurrency <= 0 {
		concurrency = domain.DefaultIngestConcurrency
	}
	return &IngestService{
		chunker:     chunker,
		embedder:    embedder,
		index:       index,
		readers:     readers,
		concurrency: concurrency,
	}
}

type ingestResult struct {
	doc *domain.IngestedDocument
	err error
}

// Ingest processes documents concurrently. Each document is inserted with
// a single Insert call once all its chunks are embedded, so a failure never
// leaves part of a document in the index.
func (s *IngestService) Ingest(ctx context.Context, docs []domain.Document) (*domain.IngestReport, error) {
	report := &domain.IngestReport{}
	if len(docs) == 0 {
		return report, nil
	}

	logger.Section("Ingest")
	done := logger.Timed(fmt.Sprintf("ingest %d documents", len(docs)))
	defer done()

	results := make([]ingestResult, len(docs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].err = err
				return nil
			}
			results[i].doc, results[i].err = s.ingestOne(ctx, docs[i])
			return nil
		})
	}
	_ = g.Wait()

	for i, res := range results {
		if res.err != nil {
			logger.Warn("failed to ingest %s: %v", docs[i].Source, res.err)
			report.Failed = append(report.Failed, domain.DocumentError{Source: docs[i].Source, Err: res.err})
			continue
		}
		report.Ingested = append(report.Ingested, *res.doc)
	}

	logger.Info("ingested %d documents (%d chunks), %d failed",
		len(report.Ingested), report.TotalChunks(), len(report.Failed))
	return report, report.Err()
}

func (s *IngestService) ingestOne(ctx context.Context, doc domain.Document) (*domain.IngestedDocument, error) {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	chunks, err := s.chunker.Chunk(doc)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.IndexEntry, len(chunks))
	for i := range chunks {
		entries[i] = domain.IndexEntry{Text: chunks[i].Text, Vector: vectors[i]}
	}

	ids, err := s.index.Insert(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}

	logger.Debug("indexed %s: %d chunks", doc.Source, len(chunks))
	return &domain.IngestedDocument{
		DocumentID: doc.ID,
		Source:     doc.Source,
		Chunks:     len(chunks),
		RecordIDs:  ids,
	}, nil
}

// IngestRaw reads each raw document with its format's reader and ingests
// the ones that could be read. Read failures appear in the report.
func (s *IngestService) IngestRaw(ctx context.Context, raws []domain.RawDocument) (*domain.IngestReport, error) {
	report := &domain.IngestReport{}
	docs := make([]domain.Document, 0, len(raws))

	for i := range raws {
		raw := &raws[i]
		if s.readers == nil {
			report.Failed = append(report.Failed, domain.DocumentError{
				Source: raw.URI,
				Err:    fmt.Errorf("%w: no readers configured", domain.ErrUnsupportedFormat),
			})
			continue
		}
		doc, err := s.readers.Read(ctx, raw)
		if err != nil {
			logger.Warn("failed to read %s: %v", raw.URI, err)
			report.Failed = append(report.Failed, domain.DocumentError{Source: raw.URI, Err: err})
			continue
		}
		docs = append(docs, *doc)
	}

	ingested, _ := s.Ingest(ctx, docs)
	report.Merge(ingested)
	return report, report.Err()
}
