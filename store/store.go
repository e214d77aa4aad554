// Package store persists the conversion cache and history in SQLite.
//
// One database file holds both tables. The cache maps content fingerprints
// to previously written book paths; entries expire lazily on lookup. History
// records every successful conversion, newest first.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache (
    fingerprint TEXT PRIMARY KEY,
    path        TEXT NOT NULL,
    title       TEXT NOT NULL DEFAULT '',
    chapters    INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
    id          TEXT PRIMARY KEY,
    created_at  INTEGER NOT NULL,
    source_kind TEXT NOT NULL,
    title       TEXT NOT NULL DEFAULT '',
    path        TEXT NOT NULL,
    chapters    INTEGER NOT NULL DEFAULT 0,
    size_bytes  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_history_time ON history(created_at DESC);
`

// Store wraps the clipbook database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CacheEntry is one cached conversion outcome.
type CacheEntry struct {
	Path     string
	Title    string
	Chapters int
}

// CacheLookup returns the cached outcome for a fingerprint, if present and
// younger than ttl. Expired entries are evicted on the way out. A ttl of
// zero or less disables the cache entirely.
func (s *Store) CacheLookup(ctx context.Context, fingerprint string, ttl time.Duration) (CacheEntry, bool, error) {
	if ttl <= 0 {
		return CacheEntry{}, false, nil
	}

	var e CacheEntry
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT path, title, chapters, created_at FROM cache WHERE fingerprint = ?`, fingerprint,
	).Scan(&e.Path, &e.Title, &e.Chapters, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CacheEntry{}, false, nil
	}
	if err != nil {
		return CacheEntry{}, false, fmt.Errorf("cache lookup: %w", err)
	}

	if time.Since(time.UnixMilli(createdAt)) > ttl {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM cache WHERE fingerprint = ?`, fingerprint); err != nil {
			return CacheEntry{}, false, fmt.Errorf("cache evict: %w", err)
		}
		return CacheEntry{}, false, nil
	}
	return e, true, nil
}

// CacheStore records a fingerprint → outcome mapping, replacing any prior
// entry.
func (s *Store) CacheStore(ctx context.Context, fingerprint string, e CacheEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache (fingerprint, path, title, chapters, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		fingerprint, e.Path, e.Title, e.Chapters, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// ClearCache removes all cache entries.
func (s *Store) ClearCache(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// HistoryEntry is one completed conversion.
type HistoryEntry struct {
	ID         string
	CreatedAt  time.Time
	SourceKind string // classified content kind of the payload
	Title      string
	Path       string
	Chapters   int
	SizeBytes  int64
}

// AppendHistory records a conversion. ID and CreatedAt are assigned when
// empty. The stored entry is returned.
func (s *Store) AppendHistory(ctx context.Context, e HistoryEntry) (HistoryEntry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.ID == "" {
		e.ID = ulid.MustNew(ulid.Timestamp(e.CreatedAt), rand.Reader).String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (id, created_at, source_kind, title, path, chapters, size_bytes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.UnixMilli(), e.SourceKind, e.Title, e.Path, e.Chapters, e.SizeBytes)
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("append history: %w", err)
	}
	return e, nil
}

// RecentHistory returns up to limit entries, newest first.
func (s *Store) RecentHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source_kind, title, path, chapters, size_bytes
		 FROM history ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var createdAt int64
		if err := rows.Scan(&e.ID, &createdAt, &e.SourceKind, &e.Title, &e.Path,
			&e.Chapters, &e.SizeBytes); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}
