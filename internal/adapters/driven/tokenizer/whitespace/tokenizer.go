// Package whitespace provides a tokenizer that treats each
// whitespace-separated word as one token.
//
// It needs no model files, which makes it useful offline and in tests
// where exact token counts matter. Decoding joins words with a single
// space, so original spacing is not preserved.
//
// The vocabulary holds every distinct word seen and is never pruned, so a
// long-running process (ingest --watch over a changing corpus) grows with
// the number of distinct words it has read. Use the tiktoken tokenizer,
// whose vocabulary is fixed, for long-running ingestion.
package whitespace

import (
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Tokenizer implements the interface.
var _ driven.Tokenizer = (*Tokenizer)(nil)

// Tokenizer assigns token IDs to words on first sight.
type Tokenizer struct {
	mu    sync.RWMutex
	ids   map[string]int
	words []string
}

// New creates an empty whitespace tokenizer.
func New() *Tokenizer {
	return &Tokenizer{ids: make(map[string]int)}
}

// Encode splits text on whitespace and returns a token per word.
func (t *Tokenizer) Encode(text string) []int {
	fields := strings.Fields(text)
	tokens := make([]int, len(fields))

	t.mu.Lock()
	defer t.mu.Unlock()
	for i, word := range fields {
		id, ok := t.ids[word]
		if !ok {
			id = len(t.words)
			t.ids[word] = id
			t.words = append(t.words, word)
		}
		tokens[i] = id
	}
	return tokens
}

// Decode joins the words for tokens with single spaces.
// Unknown IDs are skipped.
func (t *Tokenizer) Decode(tokens []int) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	words := make([]string, 0, len(tokens))
	for _, id := range tokens {
		if id >= 0 && id < len(t.words) {
			words = append(words, t.words[id])
		}
	}
	return strings.Join(words, " ")
}

// Len returns the number of distinct words in the vocabulary.
func (t *Tokenizer) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.words)
}

// Name returns "whitespace".
func (t *Tokenizer) Name() string {
	return "whitespace"
}
