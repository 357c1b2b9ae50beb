package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/multisource/trillm/internal/models"
	"github.com/multisource/trillm/internal/parser"
	"github.com/multisource/trillm/internal/store"
)

// ErrUnsupportedFormat indicates a documentation file with an extension
// other than .md or .mdx.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// DocsResult summarizes a documentation ingestion run.
type DocsResult struct {
	FilesProcessed int
	FilesSkipped   int
	ChunksIngested int
	Errors         []string
}

// IngestDocsDir walks dir recursively, chunks every markdown file found and
// upserts the chunks into the docs collection. Unreadable files are skipped
// and counted; non-markdown files are ignored.
func IngestDocsDir(ctx context.Context, st *store.Store, collection, dir string, chunkCfg parser.ChunkConfig, progress Progress) (*DocsResult, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if supportedExtension(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk docs dir: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no markdown files found in %s", dir)
	}

	if err := st.CreateCollection(ctx, collection); err != nil {
		return nil, err
	}

	result := &DocsResult{}
	for i, path := range paths {
		if progress != nil {
			progress(i, len(paths))
		}

		chunks, fileErr := IngestDocFile(ctx, st, collection, path, chunkCfg)
		if fileErr != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.FilesSkipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, fileErr))
			slog.Warn("failed to ingest document", "path", path, "error", fileErr)
			continue
		}
		result.FilesProcessed++
		result.ChunksIngested += chunks
	}
	if progress != nil {
		progress(len(paths), len(paths))
	}

	slog.Info("docs ingestion complete",
		"dir", dir,
		"files", result.FilesProcessed,
		"skipped", result.FilesSkipped,
		"chunks", result.ChunksIngested)
	return result, nil
}

// IngestDocFile parses and chunks a single markdown file and upserts its
// chunks. It returns the number of chunks written.
func IngestDocFile(ctx context.Context, st *store.Store, collection, path string, chunkCfg parser.ChunkConfig) (int, error) {
	if !supportedExtension(path) {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read document: %w", err)
	}

	doc := parser.ParseMarkdown(string(content))
	title := doc.Title
	if title == "" {
		title = parser.TitleFromFilename(filepath.Base(path))
	}

	chunks := parser.ChunkDocument(doc, chunkCfg)
	docType := classifyDoc(path)
	for _, chunk := range chunks {
		dc := models.DocChunk{
			Text:       chunk.Content,
			SourcePath: path,
			ChunkIndex: chunk.Index,
			Title:      title,
			Section:    chunk.Section,
		}
		metadata := map[string]string{
			"source_path": path,
			"chunk_index": strconv.Itoa(chunk.Index),
			"title":       title,
			"section":     chunk.Section,
			"doc_type":    docType,
			"source_type": string(models.SourceDocs),
		}
		if err := st.Upsert(ctx, collection, dc.ID(), dc.Text, metadata); err != nil {
			return 0, fmt.Errorf("upsert chunk %d: %w", chunk.Index, err)
		}
	}
	return len(chunks), nil
}

func supportedExtension(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".mdx":
		return true
	}
	return false
}

// classifyDoc infers a coarse document category from its path.
func classifyDoc(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.Contains(lower, "faq"):
		return "faq"
	case strings.Contains(lower, "api") || strings.Contains(lower, "reference"):
		return "api_reference"
	case strings.Contains(lower, "tutorial") || strings.Contains(lower, "guide"):
		return "guide"
	default:
		return "documentation"
	}
}
