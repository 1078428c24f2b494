package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
)

func TestQueryCmd_Use(t *testing.T) {
	assert.Equal(t, "query [text]", queryCmd.Use)
}

func TestQueryCmd_Flags(t *testing.T) {
	flag := queryCmd.Flags().Lookup("top-k")
	require.NotNil(t, flag, "top-k flag should exist")
	assert.Equal(t, "k", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)

	flag = queryCmd.Flags().Lookup("file")
	require.NotNil(t, flag, "file flag should exist")
	assert.Equal(t, "f", flag.Shorthand)

	require.NotNil(t, queryCmd.Flags().Lookup("json"), "json flag should exist")
}

func TestQueryCmd_RequiresExactlyOneArg(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute("query")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestQueryCmd_PrintsPassages(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	stdout, _, err := execute("query", "what do cats do")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Results:")
	assert.Contains(t, stdout, "[1] Cats purr when content.")
	assert.Contains(t, stdout, "[2] Dogs bark at strangers.")

	mock := retrievalService.(*mockRetrievalService)
	assert.Equal(t, "what do cats do", mock.query)
	assert.Equal(t, domain.DefaultTopK, mock.topK)
}

func TestQueryCmd_UsesConfiguredTopK(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	require.NoError(t, settingsService.Set(services.KeyTopK, 3))

	_, _, err := execute("query", "cats")

	require.NoError(t, err)
	assert.Equal(t, 3, retrievalService.(*mockRetrievalService).topK)
}

func TestQueryCmd_TopKFlag(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute("query", "-k", "1", "cats")

	require.NoError(t, err)
	assert.Equal(t, 1, retrievalService.(*mockRetrievalService).topK)
}

func TestQueryCmd_NegativeTopKReachesRetriever(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	retrievalService = &mockRetrievalService{err: domain.ErrInvalidArgument}

	_, _, err := execute("query", "--top-k", "-1", "cats")

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Equal(t, -1, retrievalService.(*mockRetrievalService).topK)
}

func TestQueryCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	stdout, _, err := execute("query", "--json", "cats")

	require.NoError(t, err)
	var out []passageJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out, 2)
	assert.Equal(t, passageJSON{Rank: 1, Text: "Cats purr when content."}, out[0])
	assert.Equal(t, 2, out[1].Rank)
}

func TestQueryCmd_NoResults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	retrievalService = &mockRetrievalService{}

	stdout, _, err := execute("query", "cats")

	require.NoError(t, err)
	assert.Contains(t, stdout, "No passages found.")
}

func TestQueryCmd_RetrievalError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	retrievalService = &mockRetrievalService{err: domain.ErrEmbeddingUnavailable}

	_, _, err := execute("query", "cats")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "query failed")
}

func TestQueryCmd_IngestsFilesFirst(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "cats purr")
	b := writeFile(t, dir, "b.txt", "dogs bark")

	_, _, err := execute("query", "--file", a, "-f", b, "cats")

	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, ingestService.(*mockIngestService).sources())
}

func TestQueryCmd_FileFailuresAreReported(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", "cats purr")
	empty := writeFile(t, dir, "empty.txt", "")

	_, stderr, err := execute("query", "-f", good, "-f", empty, "cats")

	require.NoError(t, err)
	assert.Contains(t, stderr, "Skipped "+empty)
}

func TestQueryCmd_AllFilesFail(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	empty := writeFile(t, t.TempDir(), "empty.txt", "")

	_, _, err := execute("query", "-f", empty, "cats")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	assert.Contains(t, err.Error(), "no documents could be ingested")
}

func TestQueryCmd_NotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	retrievalService = nil

	_, _, err := execute("query", "cats")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval service not configured")
}
