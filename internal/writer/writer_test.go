package writer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/multisource/trillm/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOutcome() *models.AnalysisOutcome {
	return &models.AnalysisOutcome{
		Name:   "technical_issues",
		Prompt: "Analyze the following.\n\ncontext here\n\nBe thorough.",
		Retrieved: []models.RetrievedChunk{
			{Text: "chat line", Source: models.SourceChat, Rank: 0, Similarity: 0.9},
			{Text: "doc chunk", Source: models.SourceDocs, Rank: 1, Similarity: 0.8},
		},
		Results: []models.ProviderResult{
			{Provider: "openai", Response: "openai says things", Latency: 1200 * time.Millisecond},
			{Provider: "anthropic", Err: "timeout", Latency: 30 * time.Second},
			{Provider: "gemini", Response: strings.Repeat("long response ", 200), Latency: 900 * time.Millisecond},
		},
	}
}

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	w, err := New(t.TempDir())
	require.NoError(t, err)
	w.now = func() time.Time {
		return time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	}
	return w
}

func TestWrite_Files(t *testing.T) {
	w := newTestWriter(t)
	outcome := testOutcome()

	outputs, err := w.Write(outcome)
	require.NoError(t, err)

	// One text file per successful provider; the failed one gets none.
	require.Len(t, outputs.TextFiles, 2)
	assert.Contains(t, outputs.TextFiles, "openai")
	assert.Contains(t, outputs.TextFiles, "gemini")
	assert.NotContains(t, outputs.TextFiles, "anthropic")

	content, err := os.ReadFile(outputs.TextFiles["openai"])
	require.NoError(t, err)
	assert.Equal(t, "openai says things", string(content))

	base := filepath.Base(outputs.TextFiles["openai"])
	assert.Equal(t, "technical_issues_20240301_103000_openai.txt", base)
}

func TestWrite_Comparison(t *testing.T) {
	w := newTestWriter(t)

	outputs, err := w.Write(testOutcome())
	require.NoError(t, err)

	content, err := os.ReadFile(outputs.Comparison)
	require.NoError(t, err)
	md := string(content)

	assert.Contains(t, md, "# Multi-LLM Analysis Comparison")
	assert.Contains(t, md, "## Openai Analysis")
	assert.Contains(t, md, "## Anthropic Analysis")
	assert.Contains(t, md, "Failed: timeout")
	assert.Contains(t, md, "## Gemini Analysis")
	// Long responses are previewed, not inlined whole.
	assert.Contains(t, md, "...")
	assert.Contains(t, md, "[View full openai analysis]")
}

func TestWrite_Summary(t *testing.T) {
	w := newTestWriter(t)

	outputs, err := w.Write(testOutcome())
	require.NoError(t, err)

	data, err := os.ReadFile(outputs.Summary)
	require.NoError(t, err)

	var summary struct {
		Name      string `json:"name"`
		Prompt    string `json:"prompt"`
		Providers []struct {
			Provider  string `json:"provider"`
			Status    string `json:"status"`
			LatencyMS int64  `json:"latency_ms"`
			Error     string `json:"error"`
		} `json:"providers"`
		Sources map[string]int `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(data, &summary))

	assert.Equal(t, "technical_issues", summary.Name)
	assert.NotEmpty(t, summary.Prompt)
	assert.Equal(t, 1, summary.Sources["chat"])
	assert.Equal(t, 1, summary.Sources["documentation"])

	require.Len(t, summary.Providers, 3)
	byName := make(map[string]string)
	latency := make(map[string]int64)
	for _, p := range summary.Providers {
		byName[p.Provider] = p.Status
		latency[p.Provider] = p.LatencyMS
	}
	assert.Equal(t, "success", byName["openai"])
	assert.Equal(t, "failed", byName["anthropic"])
	assert.Equal(t, int64(1200), latency["openai"])
	assert.Equal(t, int64(30000), latency["anthropic"])
}

func TestWrite_NeverOverwrites(t *testing.T) {
	w := newTestWriter(t)
	outcome := testOutcome()

	first, err := w.Write(outcome)
	require.NoError(t, err)
	second, err := w.Write(outcome)
	require.NoError(t, err)

	// Same frozen clock, so the second run must pick a different base.
	assert.NotEqual(t, first.Summary, second.Summary)
	assert.NotEqual(t, first.TextFiles["openai"], second.TextFiles["openai"])

	content, err := os.ReadFile(first.TextFiles["openai"])
	require.NoError(t, err)
	assert.Equal(t, "openai says things", string(content))
}

func TestWriteBatchReadme(t *testing.T) {
	w := newTestWriter(t)

	outputs, err := w.Write(testOutcome())
	require.NoError(t, err)

	entries := []BatchEntrySummary{
		{Name: "technical_issues", Outputs: outputs},
		{Name: "broken_prompt", Err: "template must contain the context placeholder exactly once"},
	}

	path, err := w.WriteBatchReadme(entries)
	require.NoError(t, err)
	assert.Equal(t, "README.md", filepath.Base(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	md := string(content)

	assert.Contains(t, md, "- Total prompts processed: 2")
	assert.Contains(t, md, "- Successful: 1")
	assert.Contains(t, md, "- Failed: 1")
	assert.Contains(t, md, "### technical_issues")
	assert.Contains(t, md, "- Status: Success")
	assert.Contains(t, md, "### broken_prompt")
	assert.Contains(t, md, "- Status: Failed")
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"technical_issues", "technical_issues"},
		{"weird name/with:chars", "weird_name_with_chars"},
		{"", "analysis"},
	}
	for _, tt := range tests {
		if got := sanitizeName(tt.in); got != tt.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
