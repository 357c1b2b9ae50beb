package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns fixed vectors per text so similarity ordering is
// fully controlled by the test.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func newTestStore(t *testing.T, emb Embedder) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), emb)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsert_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &fakeEmbedder{})

	require.NoError(t, s.CreateCollection(ctx, "chat"))

	require.NoError(t, s.Upsert(ctx, "chat", "id-1", "hello", nil))
	require.NoError(t, s.Upsert(ctx, "chat", "id-1", "hello edited", map[string]string{"k": "v"}))
	require.NoError(t, s.Upsert(ctx, "chat", "id-2", "other", nil))

	count, err := s.Count(ctx, "chat")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// The re-upsert replaced the text.
	records, err := s.Query(ctx, "chat", "hello", 10)
	require.NoError(t, err)
	texts := make(map[string]string)
	for _, r := range records {
		texts[r.ID] = r.Text
	}
	assert.Equal(t, "hello edited", texts["id-1"])
}

func TestUpsert_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &fakeEmbedder{})

	err := s.Upsert(ctx, "nope", "id", "text", nil)
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	require.NoError(t, s.CreateCollection(ctx, "chat"))
	err = s.Upsert(ctx, "chat", "id", "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestQuery_OrderingAndTopK(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"query":   {1, 0, 0},
		"closest": {1, 0.1, 0},
		"middle":  {1, 1, 0},
		"far":     {0, 1, 1},
	}}
	s := newTestStore(t, emb)
	require.NoError(t, s.CreateCollection(ctx, "docs"))

	require.NoError(t, s.Upsert(ctx, "docs", "a", "far", nil))
	require.NoError(t, s.Upsert(ctx, "docs", "b", "middle", nil))
	require.NoError(t, s.Upsert(ctx, "docs", "c", "closest", nil))

	records, err := s.Query(ctx, "docs", "query", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
	assert.Greater(t, records[0].Similarity, records[1].Similarity)

	// Identical query, identical result order.
	again, err := s.Query(ctx, "docs", "query", 2)
	require.NoError(t, err)
	assert.Equal(t, records, again)
}

func TestQuery_TieBreakByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{vectors: map[string][]float32{}}
	s := newTestStore(t, emb)
	require.NoError(t, s.CreateCollection(ctx, "docs"))

	// All records share the default vector, so similarities tie.
	require.NoError(t, s.Upsert(ctx, "docs", "first", "one", nil))
	require.NoError(t, s.Upsert(ctx, "docs", "second", "two", nil))
	require.NoError(t, s.Upsert(ctx, "docs", "third", "three", nil))

	records, err := s.Query(ctx, "docs", "anything", 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"first", "second", "third"},
		[]string{records[0].ID, records[1].ID, records[2].ID})
}

func TestQuery_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &fakeEmbedder{})

	_, err := s.Query(ctx, "missing", "q", 5)
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	require.NoError(t, s.CreateCollection(ctx, "docs"))
	_, err = s.Query(ctx, "docs", "  ", 5)
	assert.ErrorIs(t, err, ErrEmptyText)

	records, err := s.Query(ctx, "docs", "q", 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReopen_Persistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	emb := &fakeEmbedder{}

	s, err := Open(dir, emb)
	require.NoError(t, err)
	require.NoError(t, s.CreateCollection(ctx, "chat"))
	require.NoError(t, s.Upsert(ctx, "chat", "id-1", "persisted message", map[string]string{"username": "alice"}))
	require.NoError(t, s.Close())

	s2, err := Open(dir, emb)
	require.NoError(t, err)
	defer s2.Close()

	count, err := s2.Count(ctx, "chat")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	records, err := s2.Query(ctx, "chat", "persisted", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "persisted message", records[0].Text)
	assert.Equal(t, "alice", records[0].Metadata["username"])
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 1}))
}
