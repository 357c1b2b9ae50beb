package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/multisource/trillm/internal/ingest"
	"github.com/multisource/trillm/internal/models"
	"github.com/multisource/trillm/internal/parser"
	"github.com/multisource/trillm/internal/prompt"
	"github.com/multisource/trillm/internal/writer"
	"github.com/spf13/cobra"
)

var (
	demoChat      string
	demoDocs      string
	demoPrompt    string
	demoSkipSetup bool
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a complete end-to-end demonstration",
	Long: `Demo runs the whole pipeline in one go: ingest the sample chat CSV, ingest
the documentation directory, then run a prompt template against every
configured provider. Pass --skip-setup to reuse an already-built store.

Example:
  trillm demo --chat data/chat_messages.csv --docs docs --prompt prompts/technical_issues.txt`,
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().StringVar(&demoChat, "chat", "data/chat_messages.csv", "chat CSV to ingest")
	demoCmd.Flags().StringVar(&demoDocs, "docs", "docs", "documentation directory to ingest")
	demoCmd.Flags().StringVar(&demoPrompt, "prompt", "prompts/technical_issues.txt", "prompt template to run")
	demoCmd.Flags().BoolVar(&demoSkipSetup, "skip-setup", false, "skip ingestion, reuse the existing store")
}

func runDemo(cmd *cobra.Command, args []string) error {
	started := time.Now()
	ctx := context.Background()

	printHeader("Trillm Demo")
	fmt.Printf("Started at: %s\n", started.Format("2006-01-02 15:04:05"))

	available := cfg.AvailableProviders()
	if len(available) == 0 {
		printFailure("No provider API keys configured")
		printHint("Run 'trillm wizard' to set up credentials first")
		return fmt.Errorf("no providers available")
	}
	fmt.Printf("Configured providers: %v\n", available)

	if !demoSkipSetup {
		if err := demoIngest(ctx); err != nil {
			return err
		}
	}

	tpl, err := prompt.Load(demoPrompt)
	if err != nil {
		return err
	}

	a, err := newAnalyzer(ctx, available)
	if err != nil {
		return err
	}

	w, err := newWriter()
	if err != nil {
		return err
	}

	printHeader("Running analysis: " + tpl.Name())
	var outputs *writer.Outputs
	outcome, err := a.Run(ctx, tpl, func(o *models.AnalysisOutcome) error {
		var writeErr error
		outputs, writeErr = w.Write(o)
		return writeErr
	})
	if err != nil {
		if outcome != nil {
			dumpResults(outcome)
		}
		return err
	}
	printOutcome(outcome)
	reportOutputs(w, outputs)

	elapsed := time.Since(started).Round(time.Second)
	printHeader("Demo Completed Successfully")
	fmt.Printf("Total time: %s\n", elapsed)
	fmt.Println("Check the output directory for results.")
	return nil
}

func demoIngest(ctx context.Context) error {
	s, err := getStore(ctx)
	if err != nil {
		return err
	}

	if _, err := os.Stat(demoChat); err == nil {
		printHeader("Building chat collection")
		result, err := ingest.IngestChatCSV(ctx, s, cfg.ChatCollection, demoChat, nil)
		if err != nil {
			return fmt.Errorf("ingest chat: %w", err)
		}
		printSuccess("Ingested %d messages (%d skipped)", result.Ingested, result.Skipped)
	} else {
		printHint("No chat CSV at %s, skipping chat ingestion", demoChat)
	}

	if _, err := os.Stat(demoDocs); err == nil {
		printHeader("Ingesting documentation")
		chunkCfg := parser.ChunkConfig{MinSize: cfg.MinChunkSize, MaxSize: cfg.MaxChunkSize}
		result, err := ingest.IngestDocsDir(ctx, s, cfg.DocsCollection, demoDocs, chunkCfg, nil)
		if err != nil {
			return fmt.Errorf("ingest docs: %w", err)
		}
		printSuccess("Processed %d files, %d chunks", result.FilesProcessed, result.ChunksIngested)
	} else {
		printHint("No docs directory at %s, skipping docs ingestion", demoDocs)
	}

	return nil
}
