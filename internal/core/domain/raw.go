package domain

// RawDocument represents opaque bytes fetched by a connector.
// It is the connector's output before a reader extracts its text.
type RawDocument struct {
	// SourceID identifies the connector that produced this document.
	SourceID string

	// URI is the original location (file path, URL, etc).
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains connector-specific key-value pairs.
	Metadata map[string]any
}

// Format resolves the document format from the MIME type,
// falling back to the URI's extension.
func (r *RawDocument) Format() DocumentFormat {
	if f := FormatFromMIME(r.MIMEType); f != FormatUnknown {
		return f
	}
	return FormatFromPath(r.URI)
}

// ChangeType represents the type of document change.
type ChangeType int

const (
	// ChangeCreated indicates a new document.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified document.
	ChangeUpdated

	// ChangeDeleted indicates a removed document.
	ChangeDeleted
)

// String returns the string representation.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// RawDocumentChange represents a change event from a connector watch.
type RawDocumentChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Document is the affected document. Content is empty for deletions.
	Document RawDocument
}
