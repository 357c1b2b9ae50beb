// Package cli provides the command-line interface for trillm.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/multisource/trillm/internal/config"
	"github.com/multisource/trillm/internal/llm"
	"github.com/multisource/trillm/internal/store"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, loaded in PersistentPreRunE
	cfg config.Config

	// Lazy-initialized components
	embedder *llm.Embedder
	st       *store.Store

	logCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "trillm",
	Short: "Multi-provider documentation and chat analysis toolkit",
	Long: `Trillm ingests chat logs and project documentation into an embedding-backed
vector store, retrieves the most relevant context for a prompt template, and
fans the assembled prompt out to several LLM providers at once so their
answers can be compared side by side.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if err := cfg.ValidateChunkBounds(); err != nil {
			return err
		}

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, cleanup := config.SetupLogger(cfg.LogDir, cmd.Name(), level)
		slog.SetDefault(logger)
		logCleanup = cleanup
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if st != nil {
			if err := st.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
			}
		}
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// getStore opens the vector store on first use. Opening needs an embedder,
// so commands that never touch the store never require an embedding backend.
func getStore(ctx context.Context) (*store.Store, error) {
	if st != nil {
		return st, nil
	}

	var err error
	embedder, err = llm.NewEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	st, err = store.Open(cfg.StorePath, embedder)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	return st, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(fallbackCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(wizardCmd)
}
