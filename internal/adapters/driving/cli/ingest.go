package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-rag/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	ingestWatch bool
	ingestJSON  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths...]",
	Short: "Index files and directories",
	Long: `Reads each file, splits it into overlapping chunks, embeds the chunks
and stores them in the vector index.

Directories are walked recursively; hidden files and formats without a
reader are skipped. Plain text, Markdown, PDF (requires pdftotext) and
DOCX files are supported.

With --watch the command keeps running and re-indexes files in the given
directories as they are created, changed or removed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching directories for changes")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := initPipeline(ctx); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	raws, dirs, err := collectDocuments(ctx, args)
	if err != nil {
		return err
	}
	if ingestWatch && len(dirs) == 0 {
		return errors.New("--watch needs at least one directory")
	}

	report, ingestErr := ingestService.IngestRaw(ctx, raws)
	if report == nil {
		report = &domain.IngestReport{}
	}

	if ingestJSON {
		if err := outputReportJSON(cmd, report); err != nil {
			return err
		}
	} else {
		outputReport(cmd, report)
	}

	if !ingestWatch {
		switch {
		case ingestErr == nil:
			return nil
		case len(report.Failed) == 0:
			return fmt.Errorf("ingest failed: %w", ingestErr)
		default:
			return fmt.Errorf("%d of %d documents failed", len(report.Failed), len(raws))
		}
	}

	return watchDirectories(ctx, cmd, report, dirs)
}

// collectDocuments reads every supported file under paths. Directories are
// returned separately so they can be watched.
func collectDocuments(ctx context.Context, paths []string) ([]domain.RawDocument, []string, error) {
	var (
		raws []domain.RawDocument
		dirs []string
	)

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}

		if !info.IsDir() {
			raw, err := filesystem.ReadFile(path, path)
			if err != nil {
				return nil, nil, err
			}
			raws = append(raws, *raw)
			continue
		}

		dirs = append(dirs, path)
		connector := filesystem.New(path, path, filesystem.WithFilter(supportedFile))
		docs, errs := connector.FullSync(ctx)
		for doc := range docs {
			raws = append(raws, doc)
		}
		err = <-errs
		connector.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("walk %s: %w", path, err)
		}
	}

	return raws, dirs, nil
}

// supportedFile keeps files a reader can handle. Files named on the command
// line are always read so that unsupported ones show up in the report.
func supportedFile(path string) bool {
	return domain.FormatFromPath(filepath.Base(path)).IsValid()
}

// ingestFiles indexes the --file paths of query and chat before they run.
func ingestFiles(cmd *cobra.Command, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	raws, _, err := collectDocuments(cmd.Context(), paths)
	if err != nil {
		return err
	}
	report, err := ingestService.IngestRaw(cmd.Context(), raws)
	if report != nil {
		for i := range report.Failed {
			cmd.PrintErrf("Skipped %s: %v\n", report.Failed[i].Source, report.Failed[i].Err)
		}
		if len(report.Ingested) == 0 && err != nil {
			return fmt.Errorf("no documents could be ingested: %w", err)
		}
	}
	return nil
}

// watchDirectories runs the watch service on every directory until ctx ends.
func watchDirectories(ctx context.Context, cmd *cobra.Command, report *domain.IngestReport, dirs []string) error {
	if watchService == nil {
		return errors.New("watch service not configured")
	}
	watchService.Track(report)

	cmd.Printf("Watching %d directories for changes. Press Ctrl+C to stop.\n", len(dirs))

	g, gctx := errgroup.WithContext(ctx)
	for _, dir := range dirs {
		connector := filesystem.New(dir, dir, filesystem.WithFilter(supportedFile))
		g.Go(func() error {
			defer connector.Close()
			return watchService.Run(gctx, connector)
		})
	}
	return g.Wait()
}

type reportJSON struct {
	Ingested []ingestedJSON `json:"ingested"`
	Failed   []failedJSON   `json:"failed"`
	Chunks   int            `json:"chunks"`
}

type ingestedJSON struct {
	DocumentID string `json:"document_id"`
	Source     string `json:"source"`
	Chunks     int    `json:"chunks"`
}

type failedJSON struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

func outputReportJSON(cmd *cobra.Command, report *domain.IngestReport) error {
	out := reportJSON{
		Ingested: make([]ingestedJSON, len(report.Ingested)),
		Failed:   make([]failedJSON, len(report.Failed)),
		Chunks:   report.TotalChunks(),
	}
	for i, doc := range report.Ingested {
		out.Ingested[i] = ingestedJSON{DocumentID: doc.DocumentID, Source: doc.Source, Chunks: doc.Chunks}
	}
	for i, failed := range report.Failed {
		out.Failed[i] = failedJSON{Source: failed.Source, Error: failed.Err.Error()}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputReport(cmd *cobra.Command, report *domain.IngestReport) {
	if len(report.Ingested) == 0 && len(report.Failed) == 0 {
		cmd.Println("No documents found.")
		return
	}

	cmd.Printf("Ingested %d documents (%d chunks)\n", len(report.Ingested), report.TotalChunks())
	for _, doc := range report.Ingested {
		cmd.Printf("  %s (%d chunks)\n", doc.Source, doc.Chunks)
	}

	if len(report.Failed) > 0 {
		cmd.Printf("Failed %d documents:\n", len(report.Failed))
		for _, failed := range report.Failed {
			cmd.Printf("  %s: %v\n", failed.Source, failed.Err)
		}
	}
}
