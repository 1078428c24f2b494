package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	queryFiles []string
	queryTopK  int
	queryJSON  bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve the passages closest to a query",
	Long: `Embeds the query and prints the indexed passages nearest to it,
closest first.

Use --file to ingest documents before the query runs. This is how the
in-memory index is used from the command line.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringSliceVarP(&queryFiles, "file", "f", nil, "files or directories to ingest first")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of passages (default: retrieval.top_k setting)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output passages as JSON")
	rootCmd.AddCommand(queryCmd)
}

type passageJSON struct {
	Rank int    `json:"rank"`
	Text string `json:"text"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := initPipeline(ctx); err != nil {
		return err
	}
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	if err := ingestFiles(cmd, queryFiles); err != nil {
		return err
	}

	topK, err := resolveTopK(queryTopK)
	if err != nil {
		return err
	}

	passages, err := retrievalService.Retrieve(ctx, args[0], topK)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		out := make([]passageJSON, len(passages))
		for i, p := range passages {
			out[i] = passageJSON{Rank: i + 1, Text: p}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal passages: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(passages) == 0 {
		cmd.Println("No passages found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, p := range passages {
		cmd.Printf("  [%d] %s\n", i+1, p)
		cmd.Println()
	}
	return nil
}

// resolveTopK uses the flag when it was given a value, otherwise the
// configured retrieval.top_k. Negative values go through so the retriever
// rejects them.
func resolveTopK(flag int) (int, error) {
	if flag != 0 || settingsService == nil {
		return flag, nil
	}
	settings, err := settingsService.Get()
	if err != nil {
		return 0, fmt.Errorf("load settings: %w", err)
	}
	return settings.TopK, nil
}
