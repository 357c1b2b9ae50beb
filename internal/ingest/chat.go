// Package ingest loads chat logs and documentation into the vector store.
//
// Both jobs are idempotent: record IDs are derived from the source data, so
// re-running an ingestion upserts instead of duplicating. Bad rows and
// unreadable files are skipped and counted, never aborting the whole job.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/multisource/trillm/internal/models"
	"github.com/multisource/trillm/internal/store"
)

// ErrMissingColumns indicates the chat CSV header lacks required columns.
var ErrMissingColumns = errors.New("csv is missing required columns")

// timestampFormats are tried in order when parsing chat timestamps.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Progress reports ingestion progress to an optional observer.
type Progress func(done, total int)

// ChatResult summarizes a chat ingestion run.
type ChatResult struct {
	Ingested int
	Skipped  int
	Errors   []string
}

// IngestChatCSV reads rows of (timestamp, username, message) from csvPath
// and upserts each valid row into the chat collection. Rows with empty
// messages or unparseable timestamps are skipped and counted.
func IngestChatCSV(ctx context.Context, st *store.Store, collection, csvPath string, progress Progress) (*ChatResult, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, required := range []string{"timestamp", "username", "message"} {
		if _, ok := cols[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv rows: %w", err)
	}

	if err := st.CreateCollection(ctx, collection); err != nil {
		return nil, err
	}

	result := &ChatResult{}
	for i, row := range rows {
		if progress != nil {
			progress(i, len(rows))
		}

		record, rowErr := parseRow(row, cols)
		if rowErr != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+2, rowErr))
			slog.Debug("skipping chat row", "row", i+2, "error", rowErr)
			continue
		}

		metadata := map[string]string{
			"timestamp":   record.Timestamp.UTC().Format(time.RFC3339),
			"username":    record.Author,
			"source_type": string(models.SourceChat),
		}
		if idx, ok := cols["topic"]; ok && idx < len(row) {
			metadata["topic"] = row[idx]
		}

		if err := st.Upsert(ctx, collection, record.ID(), record.Document(), metadata); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+2, err))
			slog.Warn("failed to upsert chat row", "row", i+2, "error", err)
			continue
		}
		result.Ingested++
	}
	if progress != nil {
		progress(len(rows), len(rows))
	}

	slog.Info("chat ingestion complete", "file", csvPath, "ingested", result.Ingested, "skipped", result.Skipped)
	return result, nil
}

// parseRow builds a ChatRecord from one CSV row.
func parseRow(row []string, cols map[string]int) (models.ChatRecord, error) {
	field := func(name string) string {
		if idx, ok := cols[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	message := field("message")
	if message == "" {
		return models.ChatRecord{}, errors.New("empty message")
	}

	ts, err := parseTimestamp(field("timestamp"))
	if err != nil {
		return models.ChatRecord{}, err
	}

	return models.ChatRecord{
		Timestamp: ts,
		Author:    field("username"),
		Message:   message,
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp: %q", s)
}
