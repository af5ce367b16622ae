package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bootmatch/pkg/logging"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteStore keeps the same documents as FileStore in a single table.
type SQLiteStore struct {
	documentStore
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (and creates if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Writers are already serialised by the fleet lock; one connection
	// avoids SQLITE_BUSY between pooled connections of this process.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		payload BLOB NOT NULL,
		PRIMARY KEY (kind, name)
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	s := &SQLiteStore{db: db, path: path}
	s.documentStore = documentStore{b: sqliteBackend{db: db, path: path}}
	return s, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Import copies every document of a configuration directory into the
// database, replacing existing documents with the same kind and name.
func (s *SQLiteStore) Import(ctx context.Context, dir string) (int, error) {
	src := fileBackend{dir: dir}
	dst := sqliteBackend{db: s.db, path: s.path}

	state, err := src.read(ctx, KindState, "")
	if err != nil {
		return 0, &StoreError{Kind: KindState, Err: err}
	}
	states, err := decodeState(state)
	if err != nil {
		return 0, &StoreError{Kind: KindState, Err: err}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	count := 0
	put := func(kind, name string, data []byte) error {
		if err := dst.upsert(ctx, tx, kind, name, data); err != nil {
			return err
		}
		count++
		return nil
	}
	if err := put(KindState, "", state); err != nil {
		return 0, err
	}
	for _, st := range states {
		for _, kind := range []string{KindSpecs, KindConfigure, KindCMDB} {
			data, err := src.read(ctx, kind, st.Name)
			if err != nil {
				if kind == KindCMDB && errors.Is(err, ErrNotFound) {
					continue
				}
				return 0, &StoreError{Kind: kind, Name: st.Name, Err: err}
			}
			if err := put(kind, st.Name, data); err != nil {
				return 0, err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	logging.Info("Store", "Imported %d documents from %s into %s", count, dir, s.path)
	return count, nil
}

type sqliteBackend struct {
	db   *sql.DB
	path string
}

func (b sqliteBackend) describe() string { return b.path }

func (b sqliteBackend) read(ctx context.Context, kind, name string) ([]byte, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, `SELECT payload FROM documents WHERE kind = ? AND name = ?`, kind, name).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s/%s: %w", kind, name, ErrNotFound)
		}
		return nil, fmt.Errorf("select %s/%s: %w", kind, name, err)
	}
	return payload, nil
}

func (b sqliteBackend) write(ctx context.Context, kind, name string, data []byte) error {
	return b.upsert(ctx, b.db, kind, name, data)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (b sqliteBackend) upsert(ctx context.Context, db execer, kind, name string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := db.ExecContext(ctx, `INSERT INTO documents (kind, name, payload) VALUES (?, ?, ?)
		ON CONFLICT(kind, name) DO UPDATE SET payload = excluded.payload`, kind, name, data)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", kind, name, err)
	}
	return nil
}
