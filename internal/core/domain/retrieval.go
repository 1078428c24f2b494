package domain

// IndexEntry is the input to a vector index insertion.
type IndexEntry struct {
	// Text is the chunk text returned on retrieval.
	Text string

	// Vector is the embedding of Text.
	Vector []float32
}

// IndexRecord is a stored entry. Records are owned by the index and
// never mutated; IDs are never reused.
type IndexRecord struct {
	ID     uint64
	Vector []float32
	Text   string
}

// Passage is one search hit, ordered by ascending Distance.
type Passage struct {
	Text     string
	Distance float64
}

// PassageTexts projects passages to their text in order.
func PassageTexts(passages []Passage) []string {
	texts := make([]string, len(passages))
	for i := range passages {
		texts[i] = passages[i].Text
	}
	return texts
}
