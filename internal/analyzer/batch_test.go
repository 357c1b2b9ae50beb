package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/multisource/trillm/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestRunBatch(t *testing.T) {
	dir := writePrompts(t, map[string]string{
		"a_first.txt":  "First prompt.\n{{CONTEXT}}",
		"b_broken.txt": "No placeholder here at all.",
		"c_third.txt":  "Third prompt.\n{{CONTEXT}}",
		"ignored.md":   "Not a template.",
	})

	a := New(chatDocsSearcher(), []Provider{&stubProvider{name: "openai", response: "ok"}}, testConfig(), nil)

	var written []string
	onOutcome := func(o *models.AnalysisOutcome) error {
		written = append(written, o.Name)
		return nil
	}

	result, err := a.RunBatch(context.Background(), dir, onOutcome)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Entries, 3)

	// Filename order, failures recorded in place.
	assert.Equal(t, "a_first", result.Entries[0].Name)
	assert.NoError(t, result.Entries[0].Err)
	assert.Equal(t, "b_broken", result.Entries[1].Name)
	assert.Error(t, result.Entries[1].Err)
	assert.Equal(t, "c_third", result.Entries[2].Name)

	assert.Equal(t, []string{"a_first", "c_third"}, written)
}

func TestRunBatch_EmptyDir(t *testing.T) {
	a := New(chatDocsSearcher(), []Provider{&stubProvider{name: "openai", response: "ok"}}, testConfig(), nil)

	_, err := a.RunBatch(context.Background(), t.TempDir(), nil)
	require.Error(t, err)
}
