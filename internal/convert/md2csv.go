// Package convert turns exported chat transcripts in markdown form into the
// CSV format the chat ingestion job consumes.
//
// Records are separated by triple newlines. Each record's first line is
// "<username> — <timestamp>" joined by an em dash; the remaining lines are
// the message body.
package convert

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const recordSeparator = "\n\n\n"
const headerSeparator = " — " // em dash with surrounding spaces

// timestampLayouts map transcript timestamps onto "2006-01-02 15:04:05".
var timestampLayouts = []string{
	"1/2/06, 3:04 PM",
	"1/2/06 at 3:04 PM",
	"3:04 PM",
}

// Message is one parsed transcript record.
type Message struct {
	Timestamp string
	Username  string
	Body      string
	Source    string
}

// Result summarizes a conversion run.
type Result struct {
	RecordsFound int
	Written      int
	Skipped      int
}

// MarkdownToCSV converts one or more markdown transcripts into a single CSV.
// With multiple inputs the merged records are sorted chronologically. When
// trackSource is set, a fourth column names the originating file.
func MarkdownToCSV(inputs []string, output string, trackSource bool) (*Result, error) {
	result := &Result{}
	var all []Message

	for _, path := range inputs {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read transcript: %w", err)
		}
		source := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

		messages, found := parseTranscript(string(content), source)
		result.RecordsFound += found
		result.Skipped += found - len(messages)
		all = append(all, messages...)
		slog.Info("parsed transcript", "file", path, "records", found, "messages", len(messages))
	}

	if len(inputs) > 1 {
		sort.SliceStable(all, func(i, j int) bool { return all[i].Timestamp < all[j].Timestamp })
	}

	if err := writeCSV(output, all, trackSource); err != nil {
		return nil, err
	}
	result.Written = len(all)

	slog.Info("conversion complete", "output", output, "written", result.Written, "skipped", result.Skipped)
	return result, nil
}

// parseTranscript splits content into records and parses each one. Records
// without a parseable header line are dropped.
func parseTranscript(content, source string) (messages []Message, found int) {
	for _, record := range strings.Split(content, recordSeparator) {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		found++

		lines := strings.Split(record, "\n")
		username, stamp, ok := parseHeader(lines[0])
		if !ok {
			continue
		}

		body := ""
		if len(lines) > 1 {
			body = strings.Join(lines[1:], " ")
		}
		messages = append(messages, Message{
			Timestamp: normalizeTimestamp(stamp),
			Username:  username,
			Body:      body,
			Source:    source,
		})
	}
	return messages, found
}

func parseHeader(line string) (username, timestamp string, ok bool) {
	idx := strings.Index(line, headerSeparator)
	if idx < 0 {
		return "", "", false
	}
	username = strings.TrimSpace(line[:idx])
	timestamp = strings.TrimSpace(line[idx+len(headerSeparator):])
	if username == "" || timestamp == "" {
		return "", "", false
	}
	return username, timestamp, true
}

// normalizeTimestamp rewrites transcript timestamps as
// "2006-01-02 15:04:05". Time-only stamps borrow today's date. Unparseable
// stamps pass through unchanged.
func normalizeTimestamp(s string) string {
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if layout == "3:04 PM" {
			now := time.Now()
			ts = time.Date(now.Year(), now.Month(), now.Day(), ts.Hour(), ts.Minute(), 0, 0, time.Local)
		}
		return ts.Format("2006-01-02 15:04:05")
	}
	slog.Warn("unparseable transcript timestamp", "value", s)
	return s
}

func writeCSV(path string, messages []Message, trackSource bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"timestamp", "username", "message"}
	if trackSource {
		header = append(header, "source")
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, m := range messages {
		row := []string{m.Timestamp, m.Username, m.Body}
		if trackSource {
			row = append(row, m.Source)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
