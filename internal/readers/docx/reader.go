// Package docx reads Word documents by unpacking the OOXML archive.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.Reader = (*Reader)(nil)

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// Reader extracts paragraph text from DOCX files.
type Reader struct{}

// New creates a new DOCX reader.
func New() *Reader {
	return &Reader{}
}

// Format returns domain.FormatDOCX.
func (r *Reader) Format() domain.DocumentFormat {
	return domain.FormatDOCX
}

// Read joins the document's paragraphs with newlines. The title comes
// from docProps/core.xml, falling back to the file name.
func (r *Reader) Read(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("docx: %w: not a zip archive: %w", domain.ErrInvalidArgument, err)
	}

	content, err := readPart(archive, documentPart)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, fmt.Errorf("docx: %w: %s missing", domain.ErrInvalidArgument, documentPart)
	}

	text, err := parseDocumentXML(content)
	if err != nil {
		return nil, fmt.Errorf("docx: parse %s: %w", documentPart, err)
	}

	metadata := maps.Clone(raw.Metadata)
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["title"] = extractTitle(archive, raw.URI)
	metadata["mime_type"] = domain.MIMETypeDOCX

	return &domain.Document{
		ID:       uuid.New().String(),
		Source:   raw.URI,
		Text:     text,
		Format:   domain.FormatDOCX,
		Metadata: metadata,
	}, nil
}

// readPart returns the bytes of the named archive member, or nil if absent.
func readPart(archive *zip.Reader, name string) ([]byte, error) {
	for _, file := range archive.File {
		if file.Name != name {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("docx: open %s: %w", name, err)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("docx: read %s: %w", name, err)
		}
		return content, nil
	}
	return nil, nil
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
	Tabs []struct{}    `xml:"tab"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", err
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, run := range para.Runs {
			for range run.Tabs {
				result.WriteString("\t")
			}
			for _, text := range run.Text {
				result.WriteString(text.Content)
			}
		}
	}

	return strings.TrimSpace(result.String()), nil
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

func extractTitle(archive *zip.Reader, uri string) string {
	if content, err := readPart(archive, corePart); err == nil && content != nil {
		var core coreXML
		if err := xml.Unmarshal(content, &core); err == nil && strings.TrimSpace(core.Title) != "" {
			return strings.TrimSpace(core.Title)
		}
	}

	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
