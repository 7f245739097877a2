package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"docsearch/internal/domain"
	"docsearch/internal/lexical"
	"docsearch/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	name         TEXT PRIMARY KEY,
	blob         BLOB NOT NULL,
	chunk_count  INTEGER NOT NULL,
	processed_at TEXT NOT NULL
);`

// Storage keeps documents in a single SQLite database file.
type Storage struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. An empty path or ":memory:"
// gives a private in-memory database.
func Open(path string) (*Storage, error) {
	dsn := ":memory:"
	if path != "" && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, domain.StorageError("create "+filepath.Dir(path), err)
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, domain.StorageError("open "+path, err)
	}
	// one connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, domain.StorageError("migrate "+path, err)
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Save(ctx context.Context, doc *domain.Document, idx *lexical.Index) error {
	if doc == nil {
		return store.InvalidName("")
	}
	if !store.ValidName(doc.Filename) {
		return store.InvalidName(doc.Filename)
	}
	data, err := store.Marshal(doc, idx)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (name, blob, chunk_count, processed_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET blob = excluded.blob, chunk_count = excluded.chunk_count, processed_at = excluded.processed_at`,
		doc.Filename, data, len(doc.Chunks), doc.ProcessedAt.UTC().Format("2006-01-02T15:04:05.000000000Z"))
	if err != nil {
		return domain.StorageError("save "+doc.Filename, err)
	}
	return nil
}

func (s *Storage) Load(ctx context.Context, name string) (*domain.Document, *lexical.Index, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM documents WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, store.NotFound(name)
	}
	if err != nil {
		return nil, nil, domain.StorageError("load "+name, err)
	}
	return store.Unmarshal(data)
}

func (s *Storage) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM documents ORDER BY name`)
	if err != nil {
		return nil, domain.StorageError("list", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, domain.StorageError("list", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list", err)
	}
	return names, nil
}

func (s *Storage) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return domain.StorageError(fmt.Sprintf("delete %s", name), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.NotFound(name)
	}
	return nil
}

func (s *Storage) Close() error { return s.db.Close() }
