// Package store provides the embedding-backed similarity store.
//
// Records live in a single SQLite database file, partitioned into named
// collections (one per data source). Upserts are idempotent by record ID;
// queries are brute-force cosine similarity over the collection, which is
// plenty for the corpus sizes this toolkit handles.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver
)

// Embedder turns text into a fixed-dimension vector. Satisfied by
// llm.Embedder; tests inject fakes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Record is a stored embedding record returned by Query.
type Record struct {
	ID         string
	Text       string
	Metadata   map[string]string
	Similarity float64
}

// Store wraps the on-disk SQLite database and the embedder.
// All access is serialized through database/sql; callers treat the store
// as a single logical resource.
type Store struct {
	db       *sql.DB
	embedder Embedder
	path     string
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS collections (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS records (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	collection TEXT NOT NULL REFERENCES collections(name),
	id         TEXT NOT NULL,
	text       TEXT NOT NULL,
	metadata   TEXT NOT NULL,
	vector     TEXT NOT NULL,
	dim        INTEGER NOT NULL,
	UNIQUE(collection, id)
);
CREATE INDEX IF NOT EXISTS idx_records_collection ON records(collection);
`

// Open opens (or creates) the store at dir and initializes the schema.
// Safe to reopen across process restarts with identical contents.
func Open(dir string, embedder Embedder) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	dbPath := filepath.Join(dir, "trillm.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	slog.Debug("vector store opened", "path", dbPath)
	return &Store{db: db, embedder: embedder, path: dbPath}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// CreateCollection registers a collection name. Idempotent.
func (s *Store) CreateCollection(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO collections(name) VALUES(?)`, name)
	if err != nil {
		return fmt.Errorf("create collection %q: %w", name, err)
	}
	return nil
}

// hasCollection reports whether the collection exists.
func (s *Store) hasCollection(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM collections WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check collection: %w", err)
	}
	return n > 0, nil
}

// Upsert embeds text and stores it under (collection, id) with metadata.
// Re-calling with the same id replaces the prior entry.
func (s *Store) Upsert(ctx context.Context, collection, id, text string, metadata map[string]string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("upsert %s/%s: %w", collection, id, ErrEmptyText)
	}

	ok, err := s.hasCollection(ctx, collection)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("upsert into %q: %w", collection, ErrCollectionNotFound)
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed %s/%s: %w", collection, id, err)
	}

	vecJSON, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("marshal vector: %w", err)
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	// Delete-then-insert keeps upserts idempotent and refreshes insertion
	// order, which is the tie-break for query results.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE collection = ? AND id = ?`, collection, id); err != nil {
		return fmt.Errorf("delete prior record: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO records(collection, id, text, metadata, vector, dim) VALUES(?,?,?,?,?,?)`,
		collection, id, text, string(metaJSON), string(vecJSON), len(vector))
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	return tx.Commit()
}

// Query returns up to topK records ordered by descending cosine similarity
// to queryText. Ties break by insertion order, so identical queries against
// an unmodified store return identical ordered results.
func (s *Store) Query(ctx context.Context, collection, queryText string, topK int) ([]Record, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, fmt.Errorf("query %q: %w", collection, ErrEmptyText)
	}
	if topK <= 0 {
		return nil, nil
	}

	ok, err := s.hasCollection(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("query %q: %w", collection, ErrCollectionNotFound)
	}

	queryVec, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, id, text, metadata, vector FROM records WHERE collection = ? AND dim = ? ORDER BY seq`,
		collection, len(queryVec))
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	type scored struct {
		rec Record
		seq int64
	}
	var results []scored
	for rows.Next() {
		var (
			seq                 int64
			id, text, meta, vec string
		)
		if err := rows.Scan(&seq, &id, &text, &meta, &vec); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var vector []float32
		if err := json.Unmarshal([]byte(vec), &vector); err != nil || len(vector) != len(queryVec) {
			continue
		}
		metadata := make(map[string]string)
		if err := json.Unmarshal([]byte(meta), &metadata); err != nil {
			metadata = nil
		}
		results = append(results, scored{
			rec: Record{
				ID:         id,
				Text:       text,
				Metadata:   metadata,
				Similarity: cosine(queryVec, vector),
			},
			seq: seq,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].rec.Similarity != results[j].rec.Similarity {
			return results[i].rec.Similarity > results[j].rec.Similarity
		}
		return results[i].seq < results[j].seq
	})

	if len(results) > topK {
		results = results[:topK]
	}
	out := make([]Record, len(results))
	for i, r := range results {
		out[i] = r.rec
	}
	return out, nil
}

// Count returns the number of records in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	ok, err := s.hasCollection(ctx, collection)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("count %q: %w", collection, ErrCollectionNotFound)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE collection = ?`, collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
