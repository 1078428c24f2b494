// Package cli implements the sercha-rag command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is set at build time.
var version = "dev"

var (
	cfgFile string
	verbose bool
)

// Services used by the commands. initSettings and initPipeline fill them
// on first use; tests assign mocks directly.
var (
	settingsService  settingsManager
	configValidator  driven.AIConfigValidator
	ingestService    driving.IngestService
	retrievalService driving.RetrievalService
	chatService      driving.ChatService
	watchService     changeWatcher
	configPath       string
)

// settingsManager is the settings surface the config commands need.
type settingsManager interface {
	driving.SettingsService
	Set(key string, value any) error
}

// changeWatcher keeps the index in step with a watched directory.
type changeWatcher interface {
	Track(report *domain.IngestReport)
	Run(ctx context.Context, connector driven.Connector) error
}

var rootCmd = &cobra.Command{
	Use:   "sercha-rag",
	Short: "Ask questions about your own documents",
	Long: `sercha-rag indexes local documents and answers questions with
passages retrieved from them.

Documents are split into overlapping token windows, embedded with the
configured provider and stored in a vector index. Queries return the
closest passages; chat sends them to a language model as context.

API keys are read from the config file, from OPENAI_API_KEY and
ANTHROPIC_API_KEY, or from a .env file in the working directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return loadEnv()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file, .toml or .yaml (default ~/.sercha-rag/config.toml)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command and releases the pipeline afterwards.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

// loadEnv reads .env from the working directory if there is one.
// Variables already set in the environment win.
func loadEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load .env: %w", err)
}
