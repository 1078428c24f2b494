// Package tiktoken provides a Tokenizer backed by OpenAI's BPE encodings.
//
// BPE rank files are loaded from the bundled offline loader, so no
// network access is needed at runtime.
package tiktoken

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Tokenizer implements the interface.
var _ driven.Tokenizer = (*Tokenizer)(nil)

// DefaultEncoding matches text-embedding-3-* and gpt-4o-mini's predecessor models.
const DefaultEncoding = "cl100k_base"

var loaderOnce sync.Once

func useOfflineLoader() {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
}

// Tokenizer wraps a tiktoken encoding.
type Tokenizer struct {
	enc  *tiktoken.Tiktoken
	name string
}

// New creates a tokenizer for a named encoding (e.g. "cl100k_base").
// An empty name uses DefaultEncoding.
func New(encoding string) (*Tokenizer, error) {
	useOfflineLoader()
	if encoding == "" {
		encoding = DefaultEncoding
	}

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("tiktoken: load encoding %q: %w", encoding, err)
	}
	return &Tokenizer{enc: enc, name: encoding}, nil
}

// ForModel creates a tokenizer using the encoding of a model name.
func ForModel(model string) (*Tokenizer, error) {
	useOfflineLoader()
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("tiktoken: encoding for model %q: %w", model, err)
	}
	return &Tokenizer{enc: enc, name: model}, nil
}

// Encode returns BPE tokens. Special tokens are encoded as plain text.
func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode returns the text of tokens. A range that splits a multi-byte
// character has the broken bytes replaced with U+FFFD.
func (t *Tokenizer) Decode(tokens []int) string {
	return strings.ToValidUTF8(t.enc.Decode(tokens), "\uFFFD")
}

// Name returns "tiktoken/<encoding>".
func (t *Tokenizer) Name() string {
	return "tiktoken/" + t.name
}
