package cli

import (
	"context"

	"github.com/multisource/trillm/internal/config"
	"github.com/multisource/trillm/internal/llm"
	"github.com/multisource/trillm/internal/models"
	"github.com/multisource/trillm/internal/prompt"
	"github.com/multisource/trillm/internal/writer"
	"github.com/spf13/cobra"
)

var (
	fallbackProvider string
	fallbackPrompt   string
)

var fallbackCmd = &cobra.Command{
	Use:   "fallback",
	Short: "Run a prompt against a single provider",
	Long: `Fallback runs the same retrieval and prompt assembly as analyze but
dispatches to exactly one provider. Unlike the fan-out mode, a failure of
that provider fails the whole run. Useful for re-running a provider that
errored or was skipped during a multi-provider run.

Example:
  trillm fallback --provider anthropic --prompt prompts/technical_issues.txt`,
	RunE: runFallback,
}

func init() {
	fallbackCmd.Flags().StringVar(&fallbackProvider, "provider", "", "provider to use (required)")
	fallbackCmd.Flags().StringVarP(&fallbackPrompt, "prompt", "p", "", "prompt template file (required)")
	_ = fallbackCmd.MarkFlagRequired("provider")
	_ = fallbackCmd.MarkFlagRequired("prompt")
}

func runFallback(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	tpl, err := prompt.Load(fallbackPrompt)
	if err != nil {
		return err
	}

	provider, err := config.ParseProvider(fallbackProvider)
	if err != nil {
		return err
	}
	if err := cfg.ValidateProviders([]config.Provider{provider}); err != nil {
		return err
	}

	a, err := newAnalyzer(ctx, []config.Provider{provider})
	if err != nil {
		return err
	}
	client, err := llm.NewClient(ctx, cfg, provider)
	if err != nil {
		return err
	}

	w, err := newWriter()
	if err != nil {
		return err
	}

	printHeader("Fallback analysis: " + tpl.Name() + " (" + string(provider) + ")")

	var outputs *writer.Outputs
	outcome, err := a.RunSingle(ctx, tpl, client, func(o *models.AnalysisOutcome) error {
		var writeErr error
		outputs, writeErr = w.Write(o)
		return writeErr
	})
	if err != nil {
		if outcome != nil {
			printOutcome(outcome)
		}
		return err
	}

	printOutcome(outcome)
	reportOutputs(w, outputs)
	return nil
}
