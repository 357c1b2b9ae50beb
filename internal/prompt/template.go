// Package prompt provides validated prompt templates with context substitution.
//
// A template is plain UTF-8 text containing the placeholder token exactly
// once. Validation happens at construction time, so a Template value in hand
// is always renderable.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/multisource/trillm/internal/models"
)

// Placeholder is the token replaced with retrieved context at render time.
const Placeholder = "{{CONTEXT}}"

// ErrInvalidTemplate indicates the placeholder token does not appear exactly
// once in the template text.
var ErrInvalidTemplate = errors.New("template must contain the context placeholder exactly once")

// Template is a validated prompt template.
type Template struct {
	name string
	raw  string
}

// New validates raw template text. The name labels output files.
func New(name, raw string) (*Template, error) {
	if n := strings.Count(raw, Placeholder); n != 1 {
		return nil, fmt.Errorf("%w: found %d occurrences of %s in %q", ErrInvalidTemplate, n, Placeholder, name)
	}
	return &Template{name: name, raw: raw}, nil
}

// Load reads and validates a template file. The template name is the file
// base name without extension.
func Load(path string) (*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return New(name, string(raw))
}

// Name returns the template's label.
func (t *Template) Name() string {
	return t.name
}

// Raw returns the unrendered template text.
func (t *Template) Raw() string {
	return t.raw
}

// Query returns the text used to similarity-query the store: the template
// body with the placeholder stripped.
func (t *Template) Query() string {
	return strings.TrimSpace(strings.Replace(t.raw, Placeholder, "", 1))
}

// Render substitutes the serialized context block at the placeholder.
// Pure function, no I/O. Chunks must already be in descending relevance
// order; they are emitted one per paragraph with a source label.
func (t *Template) Render(chunks []models.RetrievedChunk) string {
	blocks := make([]string, 0, len(chunks))
	for _, c := range chunks {
		blocks = append(blocks, formatChunk(c))
	}
	context := strings.Join(blocks, "\n\n")
	return strings.Replace(t.raw, Placeholder, context, 1)
}

// formatChunk labels a chunk with its source, matching the layout the
// analysis prompts were written against.
func formatChunk(c models.RetrievedChunk) string {
	if c.Source == models.SourceDocs {
		title := c.Metadata["title"]
		if title == "" {
			title = "Unknown Document"
		}
		section := c.Metadata["section"]
		if section == "" {
			section = "Unknown Section"
		}
		return fmt.Sprintf("--- DOCUMENTATION: %s - %s ---\n%s", title, section, c.Text)
	}
	return fmt.Sprintf("--- CHAT CONVERSATION ---\n%s", c.Text)
}
