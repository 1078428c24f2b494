package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// WatchStats counts the changes a WatchService has handled.
type WatchStats struct {
	Ingested int
	Deleted  int
	Errors   int
}

// WatchService keeps the index in step with a changing source. It remembers
// which records each URI produced so an update or delete can remove the
// stale records.
type WatchService struct {
	ingest driving.IngestService
	index  driven.VectorIndex

	mu      sync.Mutex
	records map[string][]uint64
	stats   WatchStats
}

// NewWatchService creates a watch service writing through ingest into index.
func NewWatchService(ingest driving.IngestService, index driven.VectorIndex) *WatchService {
	return &WatchService{
		ingest:  ingest,
		index:   index,
		records: make(map[string][]uint64),
	}
}

// Track records the IDs from a report so later changes to the same sources
// replace them.
func (w *WatchService) Track(report *domain.IngestReport) {
	if report == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, doc := range report.Ingested {
		w.records[doc.Source] = append(w.records[doc.Source], doc.RecordIDs...)
	}
}

// Tracked returns the record IDs currently held for uri.
func (w *WatchService) Tracked(uri string) []uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]uint64(nil), w.records[uri]...)
}

// Stats returns a snapshot of the handled change counts.
func (w *WatchService) Stats() WatchStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Apply handles one change. A created or updated document is ingested
// first; its previous records are removed only once the new version is in
// the index, so a failed update leaves the old version searchable. Deleted
// documents only lose their records.
func (w *WatchService) Apply(ctx context.Context, change domain.RawDocumentChange) error {
	uri := change.Document.URI

	switch change.Type {
	case domain.ChangeCreated, domain.ChangeUpdated:
		logger.Debug("Re-ingesting: %s", uri)
		stale := w.Tracked(uri)
		report, err := w.ingest.IngestRaw(ctx, []domain.RawDocument{change.Document})
		if err != nil {
			w.Track(report)
			return w.fail(err)
		}
		if len(stale) > 0 {
			if err := w.index.Delete(ctx, stale); err != nil {
				w.Track(report)
				return w.fail(fmt.Errorf("delete stale records for %s: %w", uri, err))
			}
		}
		w.replace(uri, stale, report)
		w.mu.Lock()
		w.stats.Ingested++
		w.mu.Unlock()
		logger.Info("Indexed %s (%d chunks)", uri, report.TotalChunks())

	case domain.ChangeDeleted:
		logger.Debug("Deleting: %s", uri)
		if err := w.forget(ctx, uri); err != nil {
			return w.fail(fmt.Errorf("delete %s: %w", uri, err))
		}
		w.mu.Lock()
		w.stats.Deleted++
		w.mu.Unlock()
		logger.Info("Removed %s", uri)

	default:
		return w.fail(fmt.Errorf("%w: unknown change type %s", domain.ErrInvalidArgument, change.Type))
	}
	return nil
}

// Run applies changes from the connector until ctx is cancelled or the
// change channel closes. Failed changes are logged and counted; they do
// not stop the loop.
func (w *WatchService) Run(ctx context.Context, connector driven.Connector) error {
	changes, err := connector.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch %s: %w", connector.SourceID(), err)
	}

	logger.Info("Watching source %s", connector.SourceID())
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if err := w.Apply(ctx, change); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				logger.Warn("Failed to apply change to %s: %v", change.Document.URI, err)
			}
		}
	}
}

// forget deletes the records held for uri. An unknown uri is a no-op.
func (w *WatchService) forget(ctx context.Context, uri string) error {
	w.mu.Lock()
	ids := w.records[uri]
	w.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	if err := w.index.Delete(ctx, ids); err != nil {
		return err
	}

	w.mu.Lock()
	delete(w.records, uri)
	w.mu.Unlock()
	return nil
}

// replace drops the deleted ids from uri's tracking and records the ids
// from report.
func (w *WatchService) replace(uri string, deleted []uint64, report *domain.IngestReport) {
	w.mu.Lock()
	kept := slices.DeleteFunc(w.records[uri], func(id uint64) bool {
		return slices.Contains(deleted, id)
	})
	if len(kept) == 0 {
		delete(w.records, uri)
	} else {
		w.records[uri] = kept
	}
	w.mu.Unlock()
	w.Track(report)
}

func (w *WatchService) fail(err error) error {
	w.mu.Lock()
	w.stats.Errors++
	w.mu.Unlock()
	return err
}
