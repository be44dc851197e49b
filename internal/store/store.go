// Package store persists per-file analysis data in SQLite: file metadata,
// the opaque blob each plugin produced for a file, and a symbol table used
// for cross-file links.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNotFound is returned when a requested file doesn't exist.
var ErrNotFound = errors.New("not found")

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// File is the metadata recorded for one indexed file.
type File struct {
	Path      string
	Language  string
	Hash      string
	Lines     int
	IndexedAt time.Time
}

// Symbol is a definition that other files may link to.
type Symbol struct {
	Name      string
	Kind      string
	Path      string
	Line      int
	Container string
	Signature string
}

// Store is safe for concurrent use; writes are serialized on a single
// connection.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if path != MemoryPath {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := applySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// PutFile inserts or replaces the metadata of f.Path. Blobs and symbols of
// the file are kept.
func (s *Store) PutFile(ctx context.Context, f File) error {
	if f.IndexedAt.IsZero() {
		f.IndexedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (path, language, hash, lines, indexed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			language = excluded.language,
			hash = excluded.hash,
			lines = excluded.lines,
			indexed_at = excluded.indexed_at
	`, f.Path, f.Language, f.Hash, f.Lines, f.IndexedAt.Unix())
	if err != nil {
		return fmt.Errorf("put file %s: %w", f.Path, err)
	}
	return nil
}

// File returns the metadata of path.
func (s *Store) File(ctx context.Context, path string) (File, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT path, language, hash, lines, indexed_at FROM files WHERE path = ?
	`, path)
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return File{}, fmt.Errorf("file %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return File{}, fmt.Errorf("get file %s: %w", path, err)
	}
	return f, nil
}

// Files lists every indexed file ordered by path.
func (s *Store) Files(ctx context.Context) ([]File, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, language, hash, lines, indexed_at FROM files ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// DeleteFile removes path together with its blobs and symbols.
func (s *Store) DeleteFile(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM files WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete file %s: %w", path, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (File, error) {
	var (
		f         File
		indexedAt int64
	)
	if err := row.Scan(&f.Path, &f.Language, &f.Hash, &f.Lines, &indexedAt); err != nil {
		return File{}, err
	}
	f.IndexedAt = time.Unix(indexedAt, 0)
	return f, nil
}

// PutBlob stores the data plugin produced for path. The file must have
// been recorded with PutFile.
func (s *Store) PutBlob(ctx context.Context, path, plugin string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (path, plugin, data) VALUES (?, ?, ?)
		ON CONFLICT(path, plugin) DO UPDATE SET data = excluded.data
	`, path, plugin, data)
	if err != nil {
		return fmt.Errorf("put blob %s/%s: %w", path, plugin, err)
	}
	return nil
}

// Blob returns the data of every plugin for path, keyed by plugin name.
func (s *Store) Blob(ctx context.Context, path string) (map[string][]byte, error) {
	if _, err := s.File(ctx, path); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT plugin, data FROM blobs WHERE path = ?", path)
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", path, err)
	}
	defer rows.Close()

	blob := make(map[string][]byte)
	for rows.Next() {
		var (
			plugin string
			data   []byte
		)
		if err := rows.Scan(&plugin, &data); err != nil {
			return nil, fmt.Errorf("scan blob: %w", err)
		}
		blob[plugin] = data
	}
	return blob, rows.Err()
}

// ReplaceSymbols swaps the symbols defined in path for symbols. The Path
// field of each symbol is ignored.
func (s *Store) ReplaceSymbols(ctx context.Context, path string, symbols []Symbol) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM symbols WHERE path = ?", path); err != nil {
		return fmt.Errorf("clear symbols of %s: %w", path, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO symbols (name, kind, path, line, container, signature)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare symbol insert: %w", err)
	}
	defer stmt.Close()

	for _, sym := range symbols {
		if _, err = stmt.ExecContext(ctx, sym.Name, sym.Kind, path, sym.Line, sym.Container, sym.Signature); err != nil {
			return fmt.Errorf("insert symbol %s: %w", sym.Name, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit symbols of %s: %w", path, err)
	}
	return nil
}

// LookupSymbol returns every symbol named name, ordered by path and line.
// No match is an empty result, not an error.
func (s *Store) LookupSymbol(ctx context.Context, name string) ([]Symbol, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, kind, path, line, container, signature
		FROM symbols WHERE name = ? ORDER BY path, line
	`, name)
	if err != nil {
		return nil, fmt.Errorf("lookup symbol %s: %w", name, err)
	}
	return scanSymbols(rows)
}

// Symbols returns the whole symbol table ordered by path and line.
func (s *Store) Symbols(ctx context.Context) ([]Symbol, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, kind, path, line, container, signature
		FROM symbols ORDER BY path, line, name
	`)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	return scanSymbols(rows)
}

func scanSymbols(rows *sql.Rows) ([]Symbol, error) {
	defer rows.Close()

	var symbols []Symbol
	for rows.Next() {
		var sym Symbol
		if err := rows.Scan(&sym.Name, &sym.Kind, &sym.Path, &sym.Line, &sym.Container, &sym.Signature); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}
