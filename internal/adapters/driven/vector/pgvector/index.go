// Package pgvector provides a vector index backed by PostgreSQL with the
// pgvector extension. Ranking uses the <-> (L2) operator server side.
package pgvector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector/l2"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultTable is the records table used when no table is configured.
const DefaultTable = "sercha_chunks"

// ErrMissingDSN is returned when no connection string is configured.
var ErrMissingDSN = errors.New("pgvector: dsn is required")

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Index is a PostgreSQL-backed vector index.
type Index struct {
	mu    sync.RWMutex
	db    *sql.DB
	table string
	dim   int
	count int
}

// Option configures the index.
type Option func(*Index)

// WithTable overrides the records table name.
func WithTable(name string) Option {
	return func(i *Index) {
		if name != "" {
			i.table = name
		}
	}
}

// Open connects to dsn, creates the extension and tables if needed and
// loads the stored dimension.
func Open(ctx context.Context, dsn string, opts ...Option) (*Index, error) {
	if dsn == "" {
		return nil, ErrMissingDSN
	}

	idx := &Index{table: DefaultTable}
	for _, opt := range opts {
		opt(idx)
	}
	if !tableNamePattern.MatchString(idx.table) {
		return nil, fmt.Errorf("%w: invalid table name %q", domain.ErrInvalidArgument, idx.table)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	idx.db = db

	if err := idx.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := idx.loadState(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (i *Index) metaTable() string {
	return i.table + "_meta"
}

func (i *Index) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`, i.metaTable()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			text TEXT NOT NULL,
			embedding vector NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`, i.table),
	}

	for _, m := range migrations {
		if _, err := i.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}
	return nil
}

func (i *Index) loadState(ctx context.Context) error {
	var value string
	err := i.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT value FROM %s WHERE key = 'dimension'", i.metaTable())).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("read dimension: %w", err)
	default:
		dim, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse dimension %q: %w", value, err)
		}
		i.dim = dim
	}

	if err := i.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", i.table)).Scan(&i.count); err != nil {
		return fmt.Errorf("count records: %w", err)
	}
	return nil
}

// Insert stores entries in one transaction and returns their IDs.
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
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if i.dim == 0 {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (key, value) VALUES ('dimension', $1)", i.metaTable()),
			strconv.Itoa(dim)); err != nil {
			return nil, fmt.Errorf("save dimension: %w", err)
		}
	}

	insert := fmt.Sprintf("INSERT INTO %s (text, embedding) VALUES ($1, $2::vector) RETURNING id", i.table)
	ids := make([]uint64, len(entries))
	for n := range entries {
		var id int64
		if err := tx.QueryRowContext(ctx, insert, entries[n].Text, formatVector(entries[n].Vector)).Scan(&id); err != nil {
			return nil, fmt.Errorf("insert record: %w", err)
		}
		ids[n] = uint64(id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}
	i.dim = dim
	i.count += len(entries)
	return ids, nil
}

// Search returns the k nearest records ordered by distance, then ID.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]domain.Passage, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if err := l2.CheckQuery(i.dim, query, k); err != nil {
		return nil, err
	}
	if i.count == 0 {
		return []domain.Passage{}, nil
	}

	rows, err := i.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT text, embedding <-> $1::vector AS distance
		FROM %s
		ORDER BY distance, id
		LIMIT $2
	`, i.table), formatVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	passages := make([]domain.Passage, 0, min(k, i.count))
	for rows.Next() {
		var p domain.Passage
		if err := rows.Scan(&p.Text, &p.Distance); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		passages = append(passages, p)
	}
	return passages, rows.Err()
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
		placeholders[n] = fmt.Sprintf("$%d", n+1)
		args[n] = int64(id)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", i.table, strings.Join(placeholders, ","))
	res, err := i.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete records: %w", err)
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

// formatVector renders v in pgvector text form: "[0.1,0.2,0.3]".
func formatVector(v []float32) string {
	parts := make([]string, len(v))
	for n, f := range v {
		parts[n] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
