// Package cache provides SQLite-backed caching of raw revision content,
// keyed by article title and revision id. Revisions are immutable upstream,
// but entries still carry a TTL so a cache file cannot grow stale forever.
package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding fetched revision content.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens (or creates) the cache database at path and ensures the schema
// exists. Use ":memory:" for an in-memory cache. A non-positive ttl disables
// expiry.
func Open(path string, ttl time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS revision_content (
		title      TEXT    NOT NULL,
		rev_id     INTEGER NOT NULL,
		content    TEXT    NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (title, rev_id)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache table: %w", err)
	}

	return &Store{db: db, ttl: ttl, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached content for (title, revID). The second return is
// false on a miss or when the entry has expired.
func (s *Store) Get(title string, revID int64) (string, bool, error) {
	var content string
	var fetchedAt int64
	err := s.db.QueryRow(
		`SELECT content, fetched_at FROM revision_content WHERE title = ? AND rev_id = ?`,
		title, revID,
	).Scan(&content, &fetchedAt)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query cache: %w", err)
	}
	if s.expired(fetchedAt) {
		return "", false, nil
	}
	return content, true, nil
}

// Put stores content for (title, revID), replacing any existing entry.
func (s *Store) Put(title string, revID int64, content string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO revision_content (title, rev_id, content, fetched_at)
		 VALUES (?, ?, ?, ?)`,
		title, revID, content, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// Purge deletes expired entries and reports how many were removed.
func (s *Store) Purge() (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	res, err := s.db.Exec(
		`DELETE FROM revision_content WHERE fetched_at < ?`,
		s.now().Add(-s.ttl).Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) expired(fetchedAt int64) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(time.Unix(fetchedAt, 0)) > s.ttl
}
