// Package sqlite provides a vector index stored in SQLite.
//
// Vectors are kept as little-endian float32 blobs and ranked in process
// by L2 distance. An empty path opens a private in-memory database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector/l2"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector/sqlite/migrations"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

const metaDimension = "dimension"

// Index is a SQLite-backed vector index.
type Index struct {
	mu    sync.RWMutex
	db    *sql.DB
	path  string
	dim   int
	count int
}

// Open opens or creates an index at path. An empty path opens an
// in-memory database that lives until Close.
func Open(path string) (*Index, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Every pooled connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	idx := &Index{db: db, path: path}
	if err := idx.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := idx.loadState(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// Path returns the database file path, empty for in-memory indexes.
func (i *Index) Path() string {
	return i.path
}

// migrate runs all pending migrations and records their versions.
func (i *Index) migrate(fsys embed.FS) error {
	_, err := i.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := i.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := i.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := i.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// loadState reads the dimension and record count of an existing database.
func (i *Index) loadState() error {
	var value string
	err := i.db.QueryRow("SELECT value FROM index_meta WHERE key = ?", metaDimension).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("reading dimension: %w", err)
	default:
		dim, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parsing dimension %q: %w", value, err)
		}
		i.dim = dim
	}

	if err := i.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&i.count); err != nil {
		return fmt.Errorf("counting records: %w", err)
	}
	return nil
}

// Insert stores entries in one transaction.
func (i *Index) Insert(ctx context.Context, entries []domain.IndexEntry) ([]uint64, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	dim, err := l2.CheckEntries(i.dim, entries)
	if err != nil {
		return nil, err
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if i.dim == 0 {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO index_meta (key, value) VALUES (?, ?)", metaDimension, strconv.Itoa(dim)); err != nil {
			return nil, fmt.Errorf("saving dimension: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO records (text, vector) VALUES (?, ?)")
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	ids := make([]uint64, len(entries))
	for n := range entries {
		res, err := stmt.ExecContext(ctx, entries[n].Text, float32SliceToBytes(entries[n].Vector))
		if err != nil {
			return nil, fmt.Errorf("inserting record: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("reading record id: %w", err)
		}
		ids[n] = uint64(id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing insert: %w", err)
	}
	i.dim = dim
	i.count += len(entries)
	return ids, nil
}

// Search loads every vector and ranks it by L2 distance to query.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]domain.Passage, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if err := l2.CheckQuery(i.dim, query, k); err != nil {
		return nil, err
	}
	if i.count == 0 {
		return []domain.Passage{}, nil
	}

	rows, err := i.db.QueryContext(ctx, "SELECT id, text, vector FROM records ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	candidates := make([]l2.Candidate, 0, i.count)
	for rows.Next() {
		var (
			id   int64
			text string
			blob []byte
		)
		if err := rows.Scan(&id, &text, &blob); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		vector := bytesToFloat32Slice(blob)
		if len(vector) != len(query) {
			return nil, fmt.Errorf("%w: record %d has %d dimensions", domain.ErrDimensionMismatch, id, len(vector))
		}
		candidates = append(candidates, l2.Candidate{
			Seq:      uint64(id),
			Text:     text,
			Distance: l2.Distance(query, vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return l2.TopK(candidates, k), nil
}

// Delete removes records by ID.
func (i *Index) Delete(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for n, id := range ids {
		placeholders[n] = "?"
		args[n] = int64(id)
	}

	query := fmt.Sprintf("DELETE FROM records WHERE id IN (%s)", strings.Join(placeholders, ","))
	res, err := i.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting records: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil {
		i.count -= int(affected)
	}
	return nil
}

// Len returns the number of stored records.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.count
}

// Dimension returns the fixed vector length, or 0 before the first insert.
func (i *Index) Dimension() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.dim
}

// Close closes the database connection.
func (i *Index) Close() error {
	return i.db.Close()
}

// float32SliceToBytes encodes floats as little-endian IEEE 754.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for n, f := range floats {
		binary.LittleEndian.PutUint32(buf[n*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for n := range floats {
		floats[n] = math.Float32frombits(binary.LittleEndian.Uint32(data[n*4:]))
	}
	return floats
}
