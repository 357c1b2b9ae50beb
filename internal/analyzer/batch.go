package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/multisource/trillm/internal/models"
	"github.com/multisource/trillm/internal/prompt"
)

// BatchEntry records the outcome of one prompt in a batch run.
type BatchEntry struct {
	Name    string
	Outcome *models.AnalysisOutcome
	Err     error
}

// BatchResult summarizes a batch run over a prompts directory.
type BatchResult struct {
	Entries   []BatchEntry
	Succeeded int
	Failed    int
}

// RunBatch loads every .txt template under dir and runs them sequentially
// through the analyzer. A failing prompt is recorded and the batch moves on;
// RunBatch errors only when the directory holds no usable templates.
// persist is applied to each run so results are written as they arrive.
func (a *Analyzer) RunBatch(ctx context.Context, dir string, persist Persist) (*BatchResult, error) {
	paths, err := templatePaths(dir)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{}
	for _, path := range paths {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		entry := BatchEntry{Name: templateName(path)}
		entry.Outcome, entry.Err = a.runOne(ctx, path, persist)
		if entry.Err != nil {
			result.Failed++
			slog.Error("batch prompt failed", "prompt", entry.Name, "error", entry.Err)
		} else {
			result.Succeeded++
			slog.Info("batch prompt done", "prompt", entry.Name)
		}
		result.Entries = append(result.Entries, entry)
	}

	slog.Info("batch complete", "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}

func (a *Analyzer) runOne(ctx context.Context, path string, persist Persist) (*models.AnalysisOutcome, error) {
	tpl, err := prompt.Load(path)
	if err != nil {
		return nil, err
	}
	return a.Run(ctx, tpl, persist)
}

func templatePaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read prompts dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no prompt templates found in %s", dir)
	}
	sort.Strings(paths)
	return paths, nil
}

func templateName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
