// Package store is the durable key-value store shared by all daemon
// components, with the visit-history and bookmark corpus alongside it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // CGO-free SQLite
)

// Store wraps a SQLite database holding daemon state.
type Store struct {
	db *sql.DB

	mu   sync.RWMutex
	subs []func(Change)
}

// Change describes one key-value mutation, delivered to subscribers.
type Change struct {
	Key string

	// Old is the previous JSON value, nil if the key was absent.
	Old json.RawMessage

	// New is the written JSON value, nil on delete.
	New json.RawMessage
}

// Open opens (or creates) the store at the given path.
func Open(path string) (*Store, error) {
	// WAL + busy timeout to avoid "database is locked"
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS kv(
	  key   TEXT PRIMARY KEY,
	  value TEXT NOT NULL CHECK (json_valid(value))
	);
	CREATE TABLE IF NOT EXISTS history(
	  url         TEXT PRIMARY KEY,
	  title       TEXT,
	  visit_count INTEGER NOT NULL DEFAULT 0,
	  last_visit  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_last_visit ON history(last_visit);
	CREATE TABLE IF NOT EXISTS bookmarks(
	  url      TEXT PRIMARY KEY,
	  title    TEXT,
	  added_at INTEGER NOT NULL
	);
	`)
	if err != nil {
		return fmt.Errorf("creating store tables: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the value for key into v. It returns false with no error
// when the key is absent, leaving v untouched so callers keep their
// defaults.
func (s *Store) Load(ctx context.Context, key string, v any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decoding %q: %w", key, err)
	}
	return true, nil
}

// Save writes v as JSON under key, replacing any prior value, and
// notifies subscribers with the old and new values.
func (s *Store) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}

	old := s.rawValue(ctx, key)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv(key, value) VALUES(?, json(?))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(data))
	if err != nil {
		return fmt.Errorf("saving %q: %w", key, err)
	}

	s.notify(Change{Key: key, Old: old, New: data})
	return nil
}

// Delete removes key from the store. Absent keys are a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	old := s.rawValue(ctx, key)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	if old != nil {
		s.notify(Change{Key: key, Old: old})
	}
	return nil
}

// Subscribe registers a callback for key-value changes. Callbacks run
// synchronously on the mutating goroutine and must not call back into
// the store.
func (s *Store) Subscribe(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) rawValue(ctx context.Context, key string) json.RawMessage {
	var raw string
	if err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw); err != nil {
		return nil
	}
	return json.RawMessage(raw)
}

func (s *Store) notify(c Change) {
	s.mu.RLock()
	subs := make([]func(Change), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(c)
	}
}
