package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/multisource/trillm/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_PlaceholderValidation(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			name: "exactly one placeholder",
			raw:  "Analyze this:\n\n{{CONTEXT}}\n\nSummarize.",
		},
		{
			name:    "no placeholder",
			raw:     "Analyze this with no context slot.",
			wantErr: true,
		},
		{
			name:    "two placeholders",
			raw:     "{{CONTEXT}} and again {{CONTEXT}}",
			wantErr: true,
		},
		{
			name:    "empty template",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := New("test", tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTemplate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.raw, tpl.Raw())
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "technical_issues.txt")
	require.NoError(t, os.WriteFile(path, []byte("Context:\n{{CONTEXT}}\nGo."), 0o644))

	tpl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "technical_issues", tpl.Name())

	_, err = Load(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	tpl, err := New("t", "Before\n{{CONTEXT}}\nAfter")
	require.NoError(t, err)

	chunks := []models.RetrievedChunk{
		{
			Text:   "[2024-01-01T10:00:00Z] alice: how do I install this?",
			Source: models.SourceChat,
		},
		{
			Text:   "Run the installer from the downloads page.",
			Source: models.SourceDocs,
			Metadata: map[string]string{
				"title":   "Getting Started",
				"section": "Installation",
			},
		},
		{
			Text:   "Chunk with no metadata.",
			Source: models.SourceDocs,
		},
	}

	rendered := tpl.Render(chunks)

	assert.NotContains(t, rendered, Placeholder)
	assert.Contains(t, rendered, "--- CHAT CONVERSATION ---\n[2024-01-01T10:00:00Z] alice: how do I install this?")
	assert.Contains(t, rendered, "--- DOCUMENTATION: Getting Started - Installation ---")
	assert.Contains(t, rendered, "--- DOCUMENTATION: Unknown Document - Unknown Section ---")
	assert.True(t, strings.HasPrefix(rendered, "Before\n"))
	assert.True(t, strings.HasSuffix(rendered, "\nAfter"))

	// Chunk order is preserved.
	chat := strings.Index(rendered, "CHAT CONVERSATION")
	docs := strings.Index(rendered, "Getting Started")
	assert.Less(t, chat, docs)
}

func TestQuery_StripsPlaceholder(t *testing.T) {
	tpl, err := New("t", "Find common installation problems.\n\n{{CONTEXT}}")
	require.NoError(t, err)

	q := tpl.Query()
	assert.Equal(t, "Find common installation problems.", q)
	assert.NotContains(t, q, Placeholder)
}
