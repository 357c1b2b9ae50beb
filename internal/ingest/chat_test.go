package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/multisource/trillm/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir(), stubEmbedder{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestChatCSV(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	csv := `timestamp,username,message
2024-03-01 10:00:00,alice,how do I install this?
2024-03-01 10:05:00,bob,check the getting started guide
2024-03-01 10:06:00,carol,
not-a-timestamp,dave,this row has a bad timestamp
2024-03-01 10:10:00,alice,thanks that worked
`
	result, err := IngestChatCSV(ctx, s, "chat", writeCSV(t, csv), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Ingested)
	assert.Equal(t, 2, result.Skipped)
	assert.Len(t, result.Errors, 2)

	count, err := s.Count(ctx, "chat")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestIngestChatCSV_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	csv := `timestamp,username,message
2024-03-01 10:00:00,alice,first message
2024-03-01 10:05:00,bob,second message
`
	path := writeCSV(t, csv)

	_, err := IngestChatCSV(ctx, s, "chat", path, nil)
	require.NoError(t, err)
	_, err = IngestChatCSV(ctx, s, "chat", path, nil)
	require.NoError(t, err)

	count, err := s.Count(ctx, "chat")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "re-ingestion must not duplicate rows")
}

func TestIngestChatCSV_ExtraColumns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Column order differs and a topic column is present.
	csv := `username,topic,timestamp,message
alice,setup,2024-03-01 10:00:00,works with reordered headers
`
	result, err := IngestChatCSV(ctx, s, "chat", writeCSV(t, csv), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Ingested)

	records, err := s.Query(ctx, "chat", "anything", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "setup", records[0].Metadata["topic"])
}

func TestIngestChatCSV_MissingColumns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	csv := `when,who,text
2024-03-01,alice,wrong headers
`
	_, err := IngestChatCSV(ctx, s, "chat", writeCSV(t, csv), nil)
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestIngestChatCSV_Progress(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	csv := `timestamp,username,message
2024-03-01 10:00:00,alice,one
2024-03-01 10:01:00,bob,two
`
	var last, total int
	_, err := IngestChatCSV(ctx, s, "chat", writeCSV(t, csv), func(done, t int) {
		last, total = done, t
	})
	require.NoError(t, err)
	assert.Equal(t, 2, last)
	assert.Equal(t, 2, total)
}
