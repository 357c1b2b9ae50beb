package writer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// BatchEntrySummary is one prompt's result as recorded in the batch README.
type BatchEntrySummary struct {
	Name    string
	Err     string
	Outputs *Outputs
}

// NewBatch creates a timestamped batch directory under parent and returns a
// Writer rooted in it.
func NewBatch(parent string) (*Writer, error) {
	w, err := New(parent)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(parent, "batch_"+w.now().Format("20060102_150405"))
	return New(dir)
}

// WriteBatchReadme writes a README.md summarizing the batch run into the
// writer's directory and returns its path.
func (w *Writer) WriteBatchReadme(entries []BatchEntrySummary) (string, error) {
	succeeded := 0
	for _, e := range entries {
		if e.Err == "" {
			succeeded++
		}
	}

	var b strings.Builder
	b.WriteString("# Multi-LLM Batch Analysis Run\n\n")
	fmt.Fprintf(&b, "Generated on: %s\n\n", w.now().Format("2006-01-02 15:04:05"))
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Total prompts processed: %d\n", len(entries))
	fmt.Fprintf(&b, "- Successful: %d\n", succeeded)
	fmt.Fprintf(&b, "- Failed: %d\n\n", len(entries)-succeeded)

	b.WriteString("## Results\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "### %s\n\n", e.Name)
		if e.Err != "" {
			b.WriteString("- Status: Failed\n")
			fmt.Fprintf(&b, "- Error: %s\n\n", e.Err)
			continue
		}
		b.WriteString("- Status: Success\n")
		fmt.Fprintf(&b, "- Comparison: [%s](%s)\n", filepath.Base(e.Outputs.Comparison), filepath.Base(e.Outputs.Comparison))
		fmt.Fprintf(&b, "- Summary: [%s](%s)\n", filepath.Base(e.Outputs.Summary), filepath.Base(e.Outputs.Summary))
		if len(e.Outputs.TextFiles) > 0 {
			b.WriteString("- Individual analyses:\n")
			providers := make([]string, 0, len(e.Outputs.TextFiles))
			for p := range e.Outputs.TextFiles {
				providers = append(providers, p)
			}
			sort.Strings(providers)
			for _, p := range providers {
				name := filepath.Base(e.Outputs.TextFiles[p])
				fmt.Fprintf(&b, "  - [%s](%s)\n", capitalize(p), name)
			}
		}
		b.WriteString("\n")
	}

	path := filepath.Join(w.dir, "README.md")
	if err := writeFile(path, []byte(b.String())); err != nil {
		return "", err
	}
	return path, nil
}
