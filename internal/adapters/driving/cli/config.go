package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and edit the configuration file.

The file is TOML by default; pass --config with a .yaml path to use YAML.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set one configuration value and save the file.

Keys:
  ` + strings.Join(services.SettingKeys(), "\n  "),
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the providers are reachable",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

// numericKeys are stored as numbers; everything else is kept as typed.
var numericKeys = []string{
	services.KeyChunkSize, services.KeyChunkOverlap, services.KeyTopK,
	services.KeyEmbedBatchSize, services.KeyEmbedRPS, services.KeyEmbedDimensions,
	services.KeyRetryMaxAttempts, services.KeyIngestConcurrency,
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if err := initSettings(); err != nil {
		return err
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	if configPath != "" {
		cmd.Printf("File: %s\n", configPath)
	}
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size: %d tokens\n", settings.Chunking.Size)
	cmd.Printf("  Overlap: %d tokens\n", settings.Chunking.Overlap)
	cmd.Printf("  Tokenizer: %s", tokenizerLabel(settings.Tokenizer.Name))
	if tokenizerLabel(settings.Tokenizer.Name) == tokenizerTiktoken {
		cmd.Printf(" (%s)", settings.Tokenizer.Encoding)
	}
	cmd.Println()
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	printAPIKey(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	if settings.Embedding.BatchSize > 0 {
		cmd.Printf("  Batch size: %d\n", settings.Embedding.BatchSize)
	}
	if settings.Embedding.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %g requests/s\n", settings.Embedding.RequestsPerSecond)
	}
	cmd.Printf("  Status: %s\n", configuredLabel(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	printAPIKey(cmd, settings.LLM.Provider, settings.LLM.APIKey)
	cmd.Printf("  Status: %s\n", configuredLabel(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Vector Index]")
	cmd.Printf("  Backend: %s\n", settings.VectorIndex.Backend)
	switch settings.VectorIndex.Backend {
	case domain.VectorBackendSQLite:
		path := settings.VectorIndex.Path
		if path == "" {
			path = "(in memory)"
		}
		cmd.Printf("  Path: %s\n", path)
	case domain.VectorBackendPgVector:
		cmd.Printf("  DSN: %s\n", maskDSN(settings.VectorIndex.DSN))
	}
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.TopK)
	cmd.Printf("  Provider timeout: %s\n", settings.ProviderTimeout)
	cmd.Printf("  Retries: %d attempts, backoff %s up to %s\n",
		settings.Retry.MaxAttempts, settings.Retry.InitialBackoff, settings.Retry.MaxBackoff)
	cmd.Printf("  Ingest concurrency: %d\n", settings.IngestConcurrency)
	cmd.Println()

	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if err := initSettings(); err != nil {
		return err
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, raw := args[0], args[1]
	if err := settingsService.Set(key, settingValue(key, raw)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	shown := raw
	if services.IsSecretKey(key) {
		shown = maskAPIKey(raw)
	}
	cmd.Printf("%s = %s\n", key, shown)
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	if err := initSettings(); err != nil {
		return err
	}
	if settingsService == nil || configValidator == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	ctx := cmd.Context()
	var failed int

	cmd.Printf("Embedding (%s): ", settings.Embedding.Provider)
	switch {
	case !settings.Embedding.IsConfigured():
		cmd.Println("not configured")
		failed++
	default:
		if err := configValidator.ValidateEmbedding(ctx, &settings.Embedding); err != nil {
			cmd.Printf("failed: %v\n", err)
			failed++
		} else {
			cmd.Println("ok")
		}
	}

	cmd.Printf("LLM (%s): ", settings.LLM.Provider)
	switch {
	case !settings.LLM.IsConfigured():
		cmd.Println("not configured")
		failed++
	default:
		if err := configValidator.ValidateLLM(ctx, &settings.LLM); err != nil {
			cmd.Printf("failed: %v\n", err)
			failed++
		} else {
			cmd.Println("ok")
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d provider checks failed", failed)
	}
	return nil
}

// settingValue converts a command-line value for key.
func settingValue(key, raw string) any {
	if slices.Contains(numericKeys, key) {
		return config.Parse(raw)
	}
	return raw
}

func tokenizerLabel(name string) string {
	if name == "" {
		return tokenizerTiktoken
	}
	return name
}

func configuredLabel(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func printAPIKey(cmd *cobra.Command, provider domain.AIProvider, key string) {
	if !provider.RequiresAPIKey() {
		return
	}
	if key != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(key))
	} else {
		cmd.Printf("  API Key: (not set, %s)\n", provider.APIKeyEnv())
	}
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password in a postgres URL.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	userinfo := dsn[scheme+3 : at]
	if colon := strings.Index(userinfo, ":"); colon >= 0 {
		return dsn[:scheme+3] + userinfo[:colon] + ":****" + dsn[at:]
	}
	return dsn
}
