// SPDX-License-Identifier: MPL-2.0

// Package registry persists the name to kind mapping of installed modules.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"modvalidator-cli/internal/module"
)

// DefaultPath is the registry database location relative to the working directory.
const DefaultPath = "modules.db"

// ErrNotRegistered is returned when a module name is not in the registry.
var ErrNotRegistered = errors.New("module not registered")

type (
	// Entry is one registered module.
	Entry struct {
		Name         string      `json:"name"`
		Kind         module.Kind `json:"kind"`
		RegisteredAt time.Time   `json:"registered_at"`
	}

	// Store is a SQLite-backed registry, safe for concurrent use.
	Store struct {
		db *sql.DB
		mu sync.RWMutex
	}
)

// Open opens (creating if needed) the registry database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS modules (
		name TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		registered_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`)
	return err
}

// Register records name with kind, replacing any previous entry.
func (s *Store) Register(ctx context.Context, name string, kind module.Kind) error {
	if err := module.ValidateName(name); err != nil {
		return err
	}
	if _, err := module.ParseKind(string(kind)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO modules (name, kind, registered_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET kind = excluded.kind, registered_at = excluded.registered_at`,
		name, string(kind), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", name, err)
	}
	return nil
}

// Get returns the entry for name.
func (s *Store) Get(ctx context.Context, name string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT name, kind, registered_at FROM modules WHERE name = ?`, name)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", name, err)
	}
	return e, nil
}

// List returns every entry ordered by name.
func (s *Store) List(ctx context.Context) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT name, kind, registered_at FROM modules ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Unregister removes name. Removing an unknown name returns ErrNotRegistered.
func (s *Store) Unregister(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM modules WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to unregister %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e    Entry
		kind string
		at   sql.NullTime
	)
	if err := row.Scan(&e.Name, &kind, &at); err != nil {
		return nil, err
	}
	k, err := module.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	e.Kind = k
	if at.Valid {
		e.RegisteredAt = at.Time
	}
	return &e, nil
}
