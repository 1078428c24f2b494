package cli

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [paths...]", ingestCmd.Use)
}

func TestIngestCmd_Flags(t *testing.T) {
	flag := ingestCmd.Flags().Lookup("watch")
	require.NotNil(t, flag, "watch flag should exist")
	assert.Equal(t, "w", flag.Shorthand)
	assert.Equal(t, "false", flag.DefValue)

	require.NotNil(t, ingestCmd.Flags().Lookup("json"), "json flag should exist")
}

func TestIngestCmd_RequiresPath(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute("ingest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestIngestCmd_SingleFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := writeFile(t, t.TempDir(), "notes.txt", "cats purr when content")

	stdout, _, err := execute("ingest", path)

	require.NoError(t, err)
	assert.Contains(t, stdout, "Ingested 1 documents (1 chunks)")
	assert.Contains(t, stdout, path)

	mock := ingestService.(*mockIngestService)
	require.Len(t, mock.raws, 1)
	assert.Equal(t, path, mock.raws[0].URI)
	assert.Equal(t, domain.FormatPlainText, mock.raws[0].Format())
}

func TestIngestCmd_Directory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	writeFile(t, dir, "a.md", "# Cats\nthey purr")
	writeFile(t, dir, "sub/b.txt", "dogs bark")
	writeFile(t, dir, ".hidden.txt", "secret")
	writeFile(t, dir, "image.png", "not text")

	stdout, _, err := execute("ingest", dir)

	require.NoError(t, err)
	assert.Contains(t, stdout, "Ingested 2 documents")
	assert.ElementsMatch(t, []string{"a.md", "b.txt"}, ingestService.(*mockIngestService).sources())
}

func TestIngestCmd_ExplicitUnsupportedFileIsReported(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := writeFile(t, t.TempDir(), "image.png", "not text")

	stdout, _, err := execute("ingest", path)

	require.Error(t, err)
	assert.Equal(t, "1 of 1 documents failed", err.Error())
	assert.Contains(t, stdout, "Failed 1 documents:")
	assert.Contains(t, stdout, "unsupported document format")
}

func TestIngestCmd_PartialFailure(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	writeFile(t, dir, "good.txt", "cats purr")
	writeFile(t, dir, "empty.txt", "")

	stdout, _, err := execute("ingest", dir)

	require.Error(t, err)
	assert.Equal(t, "1 of 2 documents failed", err.Error())
	assert.Contains(t, stdout, "Ingested 1 documents")
	assert.Contains(t, stdout, filepath.Join(dir, "empty.txt"))
}

func TestIngestCmd_EmptyDirectory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	stdout, _, err := execute("ingest", t.TempDir())

	require.NoError(t, err)
	assert.Contains(t, stdout, "No documents found.")
}

func TestIngestCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", "cats purr")
	empty := writeFile(t, dir, "empty.txt", "")

	stdout, _, err := execute("ingest", "--json", good, empty)

	require.Error(t, err)
	var out reportJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out.Ingested, 1)
	assert.Equal(t, good, out.Ingested[0].Source)
	assert.Equal(t, 1, out.Chunks)
	require.Len(t, out.Failed, 1)
	assert.Equal(t, empty, out.Failed[0].Source)
	assert.Contains(t, out.Failed[0].Error, "document has no text")
}

func TestIngestCmd_MissingPath(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute("ingest", filepath.Join(t.TempDir(), "missing.txt"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such file or directory")
	assert.Empty(t, ingestService.(*mockIngestService).raws)
}

func TestIngestCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ingestService = &mockIngestService{err: errors.New("index closed")}
	path := writeFile(t, t.TempDir(), "notes.txt", "cats")

	stdout, _, err := execute("ingest", path)

	require.Error(t, err)
	assert.Equal(t, "ingest failed: index closed", err.Error())
	assert.Contains(t, stdout, "No documents found.")
}

func TestIngestCmd_NotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ingestService = nil
	path := writeFile(t, t.TempDir(), "notes.txt", "cats")

	_, _, err := execute("ingest", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest service not configured")
}

func TestIngestCmd_PipelineError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	initPipeline = func(context.Context) error {
		return domain.ErrProviderNotConfigured
	}
	path := writeFile(t, t.TempDir(), "notes.txt", "cats")

	_, _, err := execute("ingest", path)

	assert.ErrorIs(t, err, domain.ErrProviderNotConfigured)
}

func TestIngestCmd_WatchNeedsDirectory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := writeFile(t, t.TempDir(), "notes.txt", "cats")

	_, _, err := execute("ingest", "--watch", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch needs at least one directory")
}

func TestIngestCmd_Watch(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "cats purr")

	stdout, _, err := execute("ingest", "--watch", dir)

	require.NoError(t, err)
	assert.Contains(t, stdout, "Watching 1 directories for changes.")

	watcher := watchService.(*mockWatcher)
	assert.Equal(t, []string{dir}, watcher.roots)
	require.Len(t, watcher.tracked, 1)
	assert.Len(t, watcher.tracked[0].Ingested, 1)
}

func TestIngestCmd_WatchError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	watchService = &mockWatcher{err: errors.New("too many open files")}

	_, _, err := execute("ingest", "--watch", t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many open files")
}

func TestSupportedFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"notes.txt", true},
		{"README.md", true},
		{"paper.pdf", true},
		{"report.docx", true},
		{"Makefile", true},
		{"photo.png", false},
		{"archive.zip", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, supportedFile(filepath.Join("/docs", tt.path)))
		})
	}
}
