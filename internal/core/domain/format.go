package domain

import (
	"path/filepath"
	"strings"
)

// DocumentFormat identifies how a raw document is turned into text.
type DocumentFormat string

// Supported document formats.
const (
	FormatUnknown   DocumentFormat = ""
	FormatPlainText DocumentFormat = "plaintext"
	FormatPDF       DocumentFormat = "pdf"
	FormatDOCX      DocumentFormat = "docx"
)

// MIME types with a dedicated reader.
const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// IsValid returns true if the format has a reader.
func (f DocumentFormat) IsValid() bool {
	switch f {
	case FormatPlainText, FormatPDF, FormatDOCX:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (f DocumentFormat) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}

// FormatFromMIME resolves a format from a MIME type.
// Any text/* type is read as plain text.
func FormatFromMIME(mimeType string) DocumentFormat {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	switch {
	case mimeType == MIMETypePDF:
		return FormatPDF
	case mimeType == MIMETypeDOCX:
		return FormatDOCX
	case strings.HasPrefix(mimeType, "text/"),
		mimeType == "application/json",
		mimeType == "application/xml":
		return FormatPlainText
	default:
		return FormatUnknown
	}
}

// FormatFromPath resolves a format from a file extension.
func FormatFromPath(path string) DocumentFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown", ".text", ".csv", ".log", "":
		return FormatPlainText
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	default:
		return FormatUnknown
	}
}
