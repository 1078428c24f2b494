// Package pdf reads PDF documents with the pdftotext tool from poppler.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.Reader = (*Reader)(nil)

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

const (
	toolName       = "pdftotext"
	maxTitleLength = 200
)

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrPDFToolNotFound
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Reader extracts text from PDFs.
type Reader struct {
	runner CommandRunner
}

// New creates a reader that shells out to pdftotext.
func New() *Reader {
	return &Reader{runner: execRunner{}}
}

// NewWithRunner creates a reader with a custom command runner.
func NewWithRunner(runner CommandRunner) *Reader {
	return &Reader{runner: runner}
}

// Format returns domain.FormatPDF.
func (r *Reader) Format() domain.DocumentFormat {
	return domain.FormatPDF
}

// Read writes the PDF to a temporary file and extracts its text in
// layout mode. A PDF with no extractable text yields an empty document.
func (r *Reader) Read(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	tmp, err := os.CreateTemp("", "sercha-rag-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("pdf: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw.Content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("pdf: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("pdf: close temp file: %w", err)
	}

	out, err := r.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		if errors.Is(err, ErrPDFToolNotFound) {
			return nil, fmt.Errorf("%w\n%s", err, InstallInstructions())
		}
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	text := strings.TrimSpace(strings.ToValidUTF8(string(out), "�"))

	metadata := maps.Clone(raw.Metadata)
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["title"] = extractTitle(text, raw.URI)
	metadata["mime_type"] = domain.MIMETypePDF

	return &domain.Document{
		ID:       uuid.New().String(),
		Source:   raw.URI,
		Text:     text,
		Format:   domain.FormatPDF,
		Metadata: metadata,
	}, nil
}

// CheckAvailable reports whether pdftotext is on PATH.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions explains how to install pdftotext.
func InstallInstructions() string {
	return `PDF support requires pdftotext (part of poppler):
  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils`
}

// extractTitle uses the first short non-empty line, or the file name.
func extractTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > maxTitleLength {
			continue
		}
		return line
	}

	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
