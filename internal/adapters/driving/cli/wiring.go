package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/tokenizer/tiktoken"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/tokenizer/whitespace"
	"github.com/custodia-labs/sercha-rag/internal/chunker"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/readers"
)

// Tokenizer names accepted by tokenizer.name.
const (
	tokenizerTiktoken   = "tiktoken"
	tokenizerWhitespace = "whitespace"
)

// Replaced in tests.
var (
	initSettings = openSettings
	initPipeline = buildPipeline
)

// releasePipeline closes the providers and the index opened by buildPipeline.
var releasePipeline func()

// openSettings opens the config file once.
func openSettings() error {
	if settingsService != nil {
		return nil
	}

	store, err := file.NewConfigStore(cfgFile)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settingsService = services.NewSettingsService(store)
	configPath = store.Path()
	if configValidator == nil {
		configValidator = ai.NewConfigValidator()
	}
	logger.Debug("config: %s", configPath)
	return nil
}

// buildPipeline wires tokenizer, chunker, providers, index and services
// from the current settings. It runs once per process.
func buildPipeline(ctx context.Context) error {
	if ingestService != nil {
		return nil
	}
	if err := initSettings(); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	tok, err := newTokenizer(settings.Tokenizer)
	if err != nil {
		return err
	}
	chunks, err := chunker.New(tok,
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)
	if err != nil {
		return err
	}

	result, err := ai.Init(ctx, *settings)
	if err != nil {
		return err
	}
	if result.EmbeddingService == nil {
		result.Close()
		return fmt.Errorf("%w: %s", domain.ErrProviderNotConfigured, strings.Join(result.Warnings, "; "))
	}

	retry := services.RetryPolicyFromSettings(settings.Retry)
	embedder, err := services.NewEmbedder(result.EmbeddingService, services.EmbedderOptions{
		BatchSize: settings.Embedding.BatchSize,
		Timeout:   settings.ProviderTimeout,
		Retry:     retry,
	})
	if err != nil {
		result.Close()
		return err
	}

	ingest := services.NewIngestService(chunks, embedder, result.VectorIndex, readers.Default(), settings.IngestConcurrency)
	retriever := services.NewRetriever(embedder, result.VectorIndex)

	ingestService = ingest
	retrievalService = retriever
	chatService = services.NewContextAssembler(retriever, result.LLMService, services.AssemblerOptions{
		TopK:    settings.TopK,
		Timeout: settings.ProviderTimeout,
		Retry:   retry,
	})
	watchService = services.NewWatchService(ingest, result.VectorIndex)
	releasePipeline = result.Close

	logger.Debug("pipeline: %s tokenizer, chunks of %d overlapping %d, %s index",
		tok.Name(), settings.Chunking.Size, settings.Chunking.Overlap, settings.VectorIndex.Backend)
	return nil
}

// newTokenizer creates the tokenizer named in settings.
func newTokenizer(settings domain.TokenizerSettings) (driven.Tokenizer, error) {
	switch settings.Name {
	case "", tokenizerTiktoken:
		encoding := settings.Encoding
		if encoding == "" {
			encoding = domain.DefaultTokenizerEncoding
		}
		return tiktoken.New(encoding)
	case tokenizerWhitespace:
		return whitespace.New(), nil
	default:
		return nil, fmt.Errorf("%w: unknown tokenizer %q (use %s or %s)",
			domain.ErrInvalidArgument, settings.Name, tokenizerTiktoken, tokenizerWhitespace)
	}
}

// closeServices releases whatever buildPipeline opened.
func closeServices() {
	if releasePipeline != nil {
		releasePipeline()
		releasePipeline = nil
	}
}
