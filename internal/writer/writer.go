// Package writer persists analysis outcomes to the output directory: one
// text file per provider, a comparison markdown file and a JSON summary.
package writer

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/multisource/trillm/internal/models"
)

// ErrUnwritable indicates the output directory cannot be created or written.
var ErrUnwritable = errors.New("output directory is not writable")

const previewLimit = 1000

// Writer emits output files for analysis runs. Every run gets a unique
// timestamped base name; existing files are never overwritten.
type Writer struct {
	dir string
	now func() time.Time
}

// Outputs lists the files written for one outcome.
type Outputs struct {
	TextFiles  map[string]string `json:"text_files"`
	Comparison string            `json:"comparison"`
	Summary    string            `json:"summary"`
}

// New returns a Writer rooted at dir, creating it if needed.
func New(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnwritable, err)
	}
	return &Writer{dir: dir, now: time.Now}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Write persists one outcome: a .txt per successful provider, a comparison
// markdown and a JSON summary, all sharing a unique timestamped base name.
func (w *Writer) Write(outcome *models.AnalysisOutcome) (*Outputs, error) {
	base, err := w.uniqueBase(outcome.Name)
	if err != nil {
		return nil, err
	}

	outputs := &Outputs{TextFiles: make(map[string]string)}
	for _, result := range outcome.Results {
		if result.Failed() {
			continue
		}
		path := base + "_" + result.Provider + ".txt"
		if err := writeFile(path, []byte(result.Response)); err != nil {
			return nil, err
		}
		outputs.TextFiles[result.Provider] = path
	}

	outputs.Comparison = base + "_comparison.md"
	if err := writeFile(outputs.Comparison, w.comparisonMarkdown(outcome, outputs)); err != nil {
		return nil, err
	}

	outputs.Summary = base + "_summary.json"
	summary, err := w.summaryJSON(outcome, outputs)
	if err != nil {
		return nil, err
	}
	if err := writeFile(outputs.Summary, summary); err != nil {
		return nil, err
	}

	slog.Info("outcome written", "name", outcome.Name, "base", base, "providers", len(outputs.TextFiles))
	return outputs, nil
}

// uniqueBase builds <dir>/<name>_<timestamp> and, if a run already claimed
// that base within the same second, appends a counter.
func (w *Writer) uniqueBase(name string) (string, error) {
	stamp := w.now().Format("20060102_150405")
	base := filepath.Join(w.dir, sanitizeName(name)+"_"+stamp)
	candidate := base
	for i := 2; ; i++ {
		if _, err := os.Stat(candidate + "_summary.json"); errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnwritable, err)
		}
		candidate = fmt.Sprintf("%s_%d", base, i)
	}
}

func (w *Writer) comparisonMarkdown(outcome *models.AnalysisOutcome, outputs *Outputs) []byte {
	var b strings.Builder
	b.WriteString("# Multi-LLM Analysis Comparison\n\n")
	fmt.Fprintf(&b, "Generated on: %s\n\n", w.now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "## Prompt\n\n```\n%s\n```\n\n", outcome.Prompt)

	for _, result := range outcome.Results {
		fmt.Fprintf(&b, "## %s Analysis\n\n", capitalize(result.Provider))
		if result.Failed() {
			fmt.Fprintf(&b, "Failed: %s\n\n", result.Err)
			continue
		}
		preview := result.Response
		if len(preview) > previewLimit {
			preview = preview[:previewLimit] + "..."
		}
		fmt.Fprintf(&b, "```\n%s\n```\n\n", preview)
		if path, ok := outputs.TextFiles[result.Provider]; ok {
			fmt.Fprintf(&b, "[View full %s analysis](./%s)\n\n", result.Provider, filepath.Base(path))
		}
	}
	return []byte(b.String())
}

type providerSummary struct {
	Provider  string `json:"provider"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
	Output    string `json:"output,omitempty"`
}

type runSummary struct {
	Name        string                  `json:"name"`
	GeneratedAt time.Time               `json:"generated_at"`
	Prompt      string                  `json:"prompt"`
	Providers   []providerSummary       `json:"providers"`
	Sources     map[string]int          `json:"sources"`
	Retrieved   []models.RetrievedChunk `json:"retrieved"`
}

func (w *Writer) summaryJSON(outcome *models.AnalysisOutcome, outputs *Outputs) ([]byte, error) {
	summary := runSummary{
		Name:        outcome.Name,
		GeneratedAt: w.now(),
		Prompt:      outcome.Prompt,
		Sources:     make(map[string]int),
		Retrieved:   outcome.Retrieved,
	}
	for source, count := range outcome.SourceCounts() {
		summary.Sources[string(source)] = count
	}
	for _, result := range outcome.Results {
		ps := providerSummary{
			Provider:  result.Provider,
			Status:    "success",
			LatencyMS: result.Latency.Milliseconds(),
		}
		if result.Failed() {
			ps.Status = "failed"
			ps.Error = result.Err
		} else if path, ok := outputs.TextFiles[result.Provider]; ok {
			ps.Output = filepath.Base(path)
		}
		summary.Providers = append(summary.Providers, ps)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal summary: %w", err)
	}
	return data, nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrUnwritable, err)
	}
	return nil
}

// sanitizeName keeps base names shell and filesystem friendly.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "analysis"
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
