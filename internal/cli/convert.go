package cli

import (
	"fmt"

	"github.com/multisource/trillm/internal/convert"
	"github.com/spf13/cobra"
)

var (
	convertOutput      string
	convertTrackSource bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <transcript.md> [more.md...]",
	Short: "Convert markdown chat transcripts to ingestion CSV",
	Long: `Convert parses exported chat transcripts (records separated by blank
lines, each starting with "user — timestamp") into the CSV format the build
command ingests. With multiple inputs the merged messages are sorted
chronologically.

Examples:
  trillm convert export.md --output chat.csv
  trillm convert jan.md feb.md --output chat.csv --track-source`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output CSV file (required)")
	convertCmd.Flags().BoolVar(&convertTrackSource, "track-source", false, "add a source column naming the input file")
	_ = convertCmd.MarkFlagRequired("output")
}

func runConvert(cmd *cobra.Command, args []string) error {
	printHeader("Converting transcripts to CSV")

	result, err := convert.MarkdownToCSV(args, convertOutput, convertTrackSource)
	if err != nil {
		return err
	}

	printSuccess("Wrote %d messages to %s", result.Written, convertOutput)
	if result.Skipped > 0 {
		printHint("%d records had no parseable header and were skipped", result.Skipped)
	}
	fmt.Printf("Records found: %d\n", result.RecordsFound)
	return nil
}
