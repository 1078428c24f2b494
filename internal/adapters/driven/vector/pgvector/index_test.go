package pgvector

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestOpen_MissingDSN(t *testing.T) {
	idx, err := Open(context.Background(), "")
	assert.Nil(t, idx)
	assert.ErrorIs(t, err, ErrMissingDSN)
}

func TestOpen_InvalidTableName(t *testing.T) {
	tests := []string{"Chunks", "drop table;", "1chunks", "a-b"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Open(context.Background(), "postgres://localhost/db", WithTable(name))
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[]", formatVector(nil))
	assert.Equal(t, "[1]", formatVector([]float32{1}))
	assert.Equal(t, "[0.5,-2,3.25]", formatVector([]float32{0.5, -2, 3.25}))
}

// TestIndex_Postgres runs against a live database when SERCHA_TEST_PG_DSN is set.
func TestIndex_Postgres(t *testing.T) {
	dsn := os.Getenv("SERCHA_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("SERCHA_TEST_PG_DSN not set")
	}
	ctx := context.Background()

	idx, err := Open(ctx, dsn, WithTable("sercha_test_chunks"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = idx.db.ExecContext(ctx, "DROP TABLE IF EXISTS sercha_test_chunks, sercha_test_chunks_meta")
		_ = idx.Close()
	})

	ids, err := idx.Insert(ctx, []domain.IndexEntry{
		{Text: "first", Vector: []float32{1, 0}},
		{Text: "second", Vector: []float32{0, 1}},
		{Text: "far", Vector: []float32{9, 9}},
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Less(t, ids[0], ids[1])

	passages, err := idx.Search(ctx, []float32{0, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, domain.PassageTexts(passages))

	_, err = idx.Insert(ctx, []domain.IndexEntry{{Text: "bad", Vector: []float32{1, 2, 3}}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 3, idx.Len())

	require.NoError(t, idx.Delete(ctx, ids[:1]))
	assert.Equal(t, 2, idx.Len())
}
