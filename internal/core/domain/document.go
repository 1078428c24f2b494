package domain

// Document is extracted text plus the identifier of where it came from.
// It is immutable once read and passed by value into the pipeline.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Source is the origin tag, usually a file path.
	Source string

	// Text is the full extracted text.
	Text string

	// Format is the format the text was read from.
	Format DocumentFormat

	// Metadata contains reader-specific key-value pairs.
	Metadata map[string]any
}

// TokenRange is a half-open interval [Start, End) of token offsets.
type TokenRange struct {
	Start int
	End   int
}

// Len returns the number of tokens in the range.
func (r TokenRange) Len() int {
	return r.End - r.Start
}

// Overlap returns how many tokens r shares with next.
func (r TokenRange) Overlap(next TokenRange) int {
	lo := max(r.Start, next.Start)
	hi := min(r.End, next.End)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// Chunk is a token-bounded substring of a Document.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Source is copied from the parent Document.
	Source string

	// Text is the decoded text of the chunk's tokens.
	Text string

	// Range is the token range relative to the tokenized document.
	Range TokenRange

	// Position is the ordinal position within the document.
	Position int
}
