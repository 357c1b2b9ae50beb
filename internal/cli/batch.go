package cli

import (
	"context"
	"fmt"

	"github.com/multisource/trillm/internal/models"
	"github.com/multisource/trillm/internal/writer"
	"github.com/spf13/cobra"
)

var batchProviders string

var batchCmd = &cobra.Command{
	Use:   "batch <prompts-dir>",
	Short: "Run every prompt template in a directory",
	Long: `Batch runs each .txt prompt template under the given directory through the
multi-provider analyzer, in filename order. Results land in a timestamped
batch directory with a README.md tallying successes and failures. One
prompt failing does not stop the batch.

Example:
  trillm batch prompts/`,
	Args: cobra.ExactArgs(1),
	RunE: runBatchCmd,
}

func init() {
	batchCmd.Flags().StringVar(&batchProviders, "providers", "", "comma-separated providers (default: all configured)")
}

func runBatchCmd(cmd *cobra.Command, args []string) error {
	return runBatchAnalysis(context.Background(), args[0], batchProviders)
}

// runBatchAnalysis is shared between the batch subcommand and analyze --batch.
func runBatchAnalysis(ctx context.Context, promptsDir, providersFlag string) error {
	providers, err := resolveProviders(providersFlag)
	if err != nil {
		return err
	}

	a, err := newAnalyzer(ctx, providers)
	if err != nil {
		return err
	}

	w, err := writer.NewBatch(cfg.OutputDir)
	if err != nil {
		return err
	}

	printHeader("Batch analysis: " + promptsDir)
	fmt.Printf("Results will be saved to %s\n\n", w.Dir())

	written := make(map[string]*writer.Outputs)
	onOutcome := func(outcome *models.AnalysisOutcome) error {
		outputs, writeErr := w.Write(outcome)
		if writeErr != nil {
			return writeErr
		}
		written[outcome.Name] = outputs
		return nil
	}

	result, err := a.RunBatch(ctx, promptsDir, onOutcome)
	if err != nil {
		return err
	}

	entries := make([]writer.BatchEntrySummary, 0, len(result.Entries))
	for _, e := range result.Entries {
		entry := writer.BatchEntrySummary{Name: e.Name, Outputs: written[e.Name]}
		if e.Err != nil {
			entry.Err = e.Err.Error()
			printFailure("%s: %v", e.Name, e.Err)
		} else {
			printSuccess("%s", e.Name)
		}
		entries = append(entries, entry)
	}

	readme, err := w.WriteBatchReadme(entries)
	if err != nil {
		return err
	}

	fmt.Println()
	printSuccess("Batch done: %d succeeded, %d failed", result.Succeeded, result.Failed)
	fmt.Printf("Summary: %s\n", readme)

	if result.Succeeded == 0 {
		return fmt.Errorf("all %d prompts failed", result.Failed)
	}
	return nil
}
