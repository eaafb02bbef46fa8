// Package sqlitevec implements the provider contract over a relational
// store of server records with embedded vectors. Vectors are kept as
// little-endian float32 blobs and scored with cosine similarity in Go.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/serverscout/serverscout/internal/domain/record"
)

const schema = `
CREATE TABLE IF NOT EXISTS servers (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	source_url  TEXT NOT NULL DEFAULT '',
	categories  TEXT NOT NULL DEFAULT '[]',
	tags        TEXT NOT NULL DEFAULT '[]',
	embedding   BLOB
);`

// Store wraps the sqlite database holding server records and embeddings.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path. Use ":memory:" for
// an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite store: %w", err)
	}
	return nil
}

// Upsert stores a record and its embedding, keyed by the record's
// canonical identity.
func (s *Store) Upsert(ctx context.Context, rec record.Record, vector []float32) error {
	categories, err := json.Marshal(stringsOrEmpty(rec.Categories))
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	tags, err := json.Marshal(stringsOrEmpty(rec.Tags))
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO servers (id, title, description, source_url, categories, tags, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			source_url = excluded.source_url,
			categories = excluded.categories,
			tags = excluded.tags,
			embedding = excluded.embedding`,
		rec.Key(), rec.Title, rec.Description, rec.SourceURL,
		string(categories), string(tags), serializeVector(vector),
	)
	if err != nil {
		return fmt.Errorf("upsert server %s: %w", rec.Key(), err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM servers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count servers: %w", err)
	}
	return n, nil
}

// storedRecord is one row with its deserialized embedding.
type storedRecord struct {
	rec    record.Record
	vector []float32
}

// all loads every row. The store is small (a local mirror of known
// servers), so scoring scans it in memory.
func (s *Store) all(ctx context.Context) ([]storedRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, source_url, categories, tags, embedding
		FROM servers`)
	if err != nil {
		return nil, fmt.Errorf("query servers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []storedRecord
	for rows.Next() {
		var (
			sr         storedRecord
			categories string
			tags       string
			blob       []byte
		)
		if err := rows.Scan(&sr.rec.ID, &sr.rec.Title, &sr.rec.Description,
			&sr.rec.SourceURL, &categories, &tags, &blob); err != nil {
			return nil, fmt.Errorf("scan server row: %w", err)
		}
		if err := json.Unmarshal([]byte(categories), &sr.rec.Categories); err != nil {
			return nil, fmt.Errorf("parse categories for %s: %w", sr.rec.ID, err)
		}
		if err := json.Unmarshal([]byte(tags), &sr.rec.Tags); err != nil {
			return nil, fmt.Errorf("parse tags for %s: %w", sr.rec.ID, err)
		}
		sr.vector = deserializeVector(blob)
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate server rows: %w", err)
	}
	return out, nil
}

func serializeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func deserializeVector(data []byte) []float32 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
