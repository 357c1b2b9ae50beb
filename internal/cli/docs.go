package cli

import (
	"context"
	"fmt"

	"github.com/multisource/trillm/internal/ingest"
	"github.com/multisource/trillm/internal/parser"
	"github.com/spf13/cobra"
)

var (
	docsCollection string
	docsNoProgress bool
	docsMinChunk   int
	docsMaxChunk   int
)

var docsCmd = &cobra.Command{
	Use:   "docs <directory>",
	Short: "Ingest markdown documentation into the vector store",
	Long: `Docs walks a directory tree, chunks every .md and .mdx file it finds and
ingests the chunks into the documentation collection. Chunk IDs derive from
the file path and chunk index, so re-ingesting a changed file replaces its
chunks in place.

Examples:
  trillm docs ./docs
  trillm docs ./website/content --collection product_docs`,
	Args: cobra.ExactArgs(1),
	RunE: runDocs,
}

func init() {
	docsCmd.Flags().StringVar(&docsCollection, "collection", "", "target collection (default from DOCS_COLLECTION_NAME)")
	docsCmd.Flags().BoolVar(&docsNoProgress, "no-progress", false, "disable the progress bar")
	docsCmd.Flags().IntVar(&docsMinChunk, "min-chunk", 0, "minimum chunk size in characters (default from MIN_CHUNK_SIZE)")
	docsCmd.Flags().IntVar(&docsMaxChunk, "max-chunk", 0, "maximum chunk size in characters (default from MAX_CHUNK_SIZE)")
}

func runDocs(cmd *cobra.Command, args []string) error {
	dir := args[0]
	collection := docsCollection
	if collection == "" {
		collection = cfg.DocsCollection
	}

	ctx := context.Background()
	s, err := getStore(ctx)
	if err != nil {
		return err
	}

	chunkCfg := parser.ChunkConfig{
		MinSize: cfg.MinChunkSize,
		MaxSize: cfg.MaxChunkSize,
	}
	if docsMinChunk > 0 {
		chunkCfg.MinSize = docsMinChunk
	}
	if docsMaxChunk > 0 {
		chunkCfg.MaxSize = docsMaxChunk
	}
	if chunkCfg.MinSize >= chunkCfg.MaxSize {
		return fmt.Errorf("min chunk size %d must be below max chunk size %d", chunkCfg.MinSize, chunkCfg.MaxSize)
	}

	printHeader("Ingesting documentation: " + dir)

	var result *ingest.DocsResult
	runIngest := func(report func(done, total int)) error {
		var runErr error
		result, runErr = ingest.IngestDocsDir(ctx, s, collection, dir, chunkCfg, ingest.Progress(report))
		return runErr
	}

	if docsNoProgress {
		err = runIngest(func(int, int) {})
	} else {
		err = runWithProgress("ingesting docs", runIngest)
	}
	if err != nil {
		return fmt.Errorf("ingest docs: %w", err)
	}

	printSuccess("Processed %d files, %d chunks (%d files skipped)",
		result.FilesProcessed, result.ChunksIngested, result.FilesSkipped)
	for _, e := range result.Errors {
		printHint("  %s", e)
	}

	count, err := s.Count(ctx, collection)
	if err == nil {
		fmt.Printf("Collection %q now holds %d records\n", collection, count)
	}
	return nil
}
