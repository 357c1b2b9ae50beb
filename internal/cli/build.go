package cli

import (
	"context"
	"fmt"

	"github.com/multisource/trillm/internal/ingest"
	"github.com/spf13/cobra"
)

var (
	buildCollection string
	buildNoProgress bool
)

var buildCmd = &cobra.Command{
	Use:   "build <chat.csv>",
	Short: "Build the chat vector collection from a CSV export",
	Long: `Build ingests a chat CSV export (columns: timestamp, username, message)
into the chat collection of the vector store. Re-running is safe: rows are
identified by timestamp and author, so existing messages are updated in
place instead of duplicated.

Examples:
  trillm build data/chat_messages.csv
  trillm build data/chat_messages.csv --collection support_chat`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildCollection, "collection", "", "target collection (default from CHAT_COLLECTION_NAME)")
	buildCmd.Flags().BoolVar(&buildNoProgress, "no-progress", false, "disable the progress bar")
}

func runBuild(cmd *cobra.Command, args []string) error {
	csvPath := args[0]
	collection := buildCollection
	if collection == "" {
		collection = cfg.ChatCollection
	}

	ctx := context.Background()
	s, err := getStore(ctx)
	if err != nil {
		return err
	}

	printHeader("Building chat collection: " + collection)

	var result *ingest.ChatResult
	runIngest := func(report func(done, total int)) error {
		var runErr error
		result, runErr = ingest.IngestChatCSV(ctx, s, collection, csvPath, ingest.Progress(report))
		return runErr
	}

	if buildNoProgress {
		err = runIngest(func(int, int) {})
	} else {
		err = runWithProgress("ingesting chat", runIngest)
	}
	if err != nil {
		return fmt.Errorf("ingest chat: %w", err)
	}

	printSuccess("Ingested %d messages (%d skipped)", result.Ingested, result.Skipped)
	for _, e := range result.Errors {
		printHint("  %s", e)
	}

	count, err := s.Count(ctx, collection)
	if err == nil {
		fmt.Printf("Collection %q now holds %d records\n", collection, count)
	}
	return nil
}
