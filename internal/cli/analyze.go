package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/multisource/trillm/internal/analyzer"
	"github.com/multisource/trillm/internal/config"
	"github.com/multisource/trillm/internal/llm"
	"github.com/multisource/trillm/internal/models"
	"github.com/multisource/trillm/internal/prompt"
	"github.com/multisource/trillm/internal/writer"
	"github.com/spf13/cobra"
)

const timeRound = 100 * time.Millisecond

var (
	analyzePrompt     string
	analyzeProviders  string
	analyzeTopK       int
	analyzeOutput     string
	analyzeBatch      bool
	analyzePromptsDir string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a prompt template against all configured LLM providers",
	Long: `Analyze retrieves the most relevant chat messages and documentation chunks
for a prompt template, assembles them into the template's {{CONTEXT}} slot
and sends the result to every configured provider concurrently. Each
provider's answer is written to its own file, alongside a comparison
markdown and a JSON summary.

One provider failing never blocks the others; its error is recorded in the
summary instead.

Examples:
  trillm analyze --prompt prompts/technical_issues.txt
  trillm analyze --prompt prompts/faq.txt --providers openai,gemini --top-k 15
  trillm analyze --batch --prompts-dir prompts/`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzePrompt, "prompt", "p", "", "prompt template file (required unless --batch)")
	analyzeCmd.Flags().StringVar(&analyzeProviders, "providers", "", "comma-separated providers (default: all configured)")
	analyzeCmd.Flags().IntVar(&analyzeTopK, "top-k", 0, "chunks to retrieve per collection (default from TOP_K)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "output directory (default from OUTPUT_DIR)")
	analyzeCmd.Flags().BoolVar(&analyzeBatch, "batch", false, "run every template under --prompts-dir instead of a single prompt")
	analyzeCmd.Flags().StringVar(&analyzePromptsDir, "prompts-dir", "prompts", "template directory for --batch")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if analyzeBatch {
		return runBatchAnalysis(ctx, analyzePromptsDir, analyzeProviders)
	}
	if analyzePrompt == "" {
		return fmt.Errorf("either --prompt or --batch is required")
	}

	tpl, err := prompt.Load(analyzePrompt)
	if err != nil {
		return err
	}

	providers, err := resolveProviders(analyzeProviders)
	if err != nil {
		return err
	}

	a, err := newAnalyzer(ctx, providers)
	if err != nil {
		return err
	}

	w, err := newWriter()
	if err != nil {
		return err
	}

	printHeader("Analyzing: " + tpl.Name())
	fmt.Printf("Providers: %v\n\n", providers)

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
	return nil
}

// resolveProviders parses the --providers flag and checks credentials.
func resolveProviders(flag string) ([]config.Provider, error) {
	if flag == "" {
		available := cfg.AvailableProviders()
		if len(available) == 0 {
			return nil, fmt.Errorf("%w: no provider API keys configured", config.ErrMissingCredentials)
		}
		return available, nil
	}
	providers, err := config.ParseProviderList(flag)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateProviders(providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// newAnalyzer builds an analyzer over the store and the given providers,
// honoring the --top-k override.
func newAnalyzer(ctx context.Context, providers []config.Provider) (*analyzer.Analyzer, error) {
	s, err := getStore(ctx)
	if err != nil {
		return nil, err
	}

	clients, err := llm.NewClients(ctx, cfg, providers)
	if err != nil {
		return nil, err
	}
	backends := make([]analyzer.Provider, len(clients))
	for i, c := range clients {
		backends[i] = c
	}

	runCfg := cfg
	if analyzeTopK > 0 {
		runCfg.TopK = analyzeTopK
	}
	return analyzer.New(s, backends, runCfg, nil), nil
}

func newWriter() (*writer.Writer, error) {
	dir := analyzeOutput
	if dir == "" {
		dir = cfg.OutputDir
	}
	return writer.New(dir)
}

func reportOutputs(w *writer.Writer, outputs *writer.Outputs) {
	fmt.Println()
	printSuccess("Results written to %s", w.Dir())
	if outputs != nil {
		fmt.Printf("  Comparison: %s\n", outputs.Comparison)
		fmt.Printf("  Summary:    %s\n", outputs.Summary)
	}
}

// dumpResults prints responses to stdout when persistence failed, so they
// are not lost with the run.
func dumpResults(outcome *models.AnalysisOutcome) {
	fmt.Println("Dumping responses to stdout so they are not lost:")
	for _, r := range outcome.Results {
		if r.Failed() {
			continue
		}
		printHeader(r.Provider)
		fmt.Println(r.Response)
	}
}

func printOutcome(outcome *models.AnalysisOutcome) {
	counts := outcome.SourceCounts()
	fmt.Printf("Retrieved %d chat and %d documentation chunks\n\n",
		counts[models.SourceChat], counts[models.SourceDocs])

	for _, r := range outcome.Results {
		if r.Failed() {
			printFailure("%s failed after %s: %s", r.Provider, r.Latency.Round(timeRound), r.Err)
			continue
		}
		printSuccess("%s answered in %s (%d chars)", r.Provider, r.Latency.Round(timeRound), len(r.Response))
		preview := r.Response
		if len(preview) > 300 {
			preview = preview[:300] + "..."
		}
		printHint("%s", preview)
		fmt.Println()
	}
}
