// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package memostore provides a TTL key/value store with atomic counters,
// backed by SQLite. It serves both as a memoization cache for provider
// calls and as the counter substrate for rate limiting.
// Implements: prd001-cache (R1-R4);
//
//	docs/ARCHITECTURE § Memo Store.
package memostore

import (
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Clock returns the current time for expiry checks. Tests override this
// to exercise window expiry without real sleeps.
var Clock = time.Now

// Store is a SQLite-backed TTL key/value store. All operations are safe
// under concurrent callers sharing the same key; Increment executes as a
// single UPSERT so counters never lose updates (R2.1).
//
// A nil Store is valid and behaves as an always-miss cache: Get misses,
// Set is a no-op, and Increment reports an error so callers can fail open.
type Store struct {
	db *sql.DB
	w  io.Writer
}

// Open opens or creates the store database at path and creates the schema
// if it does not exist (R1.1). Warnings from best-effort operations are
// written to w.
func Open(path string, w io.Writer) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db, w: w}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_expires ON entries(expires_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get loads the value stored under key into out and reports whether the
// key was present and unexpired. out must be a *string, which receives the
// raw stored text, or a pointer to a JSON-decodable value (R1.3).
//
// Any backing-store failure is treated as a cache miss: Get never blocks
// the caller on an unavailable store (R4.1).
func (s *Store) Get(key string, out any) bool {
	if s == nil || s.db == nil {
		return false
	}

	now := Clock().Unix()
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM entries WHERE key = ? AND (expires_at = 0 OR expires_at > ?)`,
		key, now,
	).Scan(&value)
	if err == sql.ErrNoRows {
		// Reap the row if it exists but expired.
		s.db.Exec(`DELETE FROM entries WHERE key = ? AND expires_at != 0 AND expires_at <= ?`, key, now)
		return false
	}
	if err != nil {
		s.warnf("cache get %s: %v", key, err)
		return false
	}

	switch v := out.(type) {
	case nil:
		return true
	case *string:
		*v = value
		return true
	default:
		if err := json.Unmarshal([]byte(value), out); err != nil {
			s.warnf("cache get %s: decoding value: %v", key, err)
			return false
		}
		return true
	}
}

// Set stores value under key with the given TTL. Strings pass through
// unchanged; other values are JSON-serialized (R1.2). ttl <= 0 stores the
// value without expiry. Set is best-effort: failures are logged and never
// propagated (R4.2).
func (s *Store) Set(key string, value any, ttl time.Duration) {
	if s == nil || s.db == nil {
		return
	}

	var serialized string
	switch v := value.(type) {
	case string:
		serialized = v
	default:
		data, err := json.Marshal(value)
		if err != nil {
			s.warnf("cache set %s: encoding value: %v", key, err)
			return
		}
		serialized = string(data)
	}

	var expiresAt int64
	if ttl > 0 {
		expiresAt = Clock().Add(ttl).Unix()
	}

	_, err := s.db.Exec(
		`INSERT INTO entries (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, serialized, expiresAt,
	)
	if err != nil {
		s.warnf("cache set %s: %v", key, err)
	}
}

// Delete removes key from the store.
func (s *Store) Delete(key string) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.Exec(`DELETE FROM entries WHERE key = ?`, key)
	return err
}

// DeletePattern removes all keys matching pattern, where '*' matches any
// sequence of characters (R1.5). It returns the number of keys removed.
func (s *Store) DeletePattern(pattern string) (int, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	like := strings.ReplaceAll(pattern, "*", "%")
	res, err := s.db.Exec(`DELETE FROM entries WHERE key LIKE ?`, like)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Increment atomically adds amount to the counter under key and returns
// the new count. A counter that does not exist, or whose window has
// expired, restarts at amount with expiry ttlIfNew from now (R2.1, R2.2).
// The whole operation is a single UPSERT so concurrent callers never lose
// increments.
func (s *Store) Increment(key string, amount int64, ttlIfNew time.Duration) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("memo store unavailable")
	}

	now := Clock().Unix()
	expiresAt := Clock().Add(ttlIfNew).Unix()

	var count int64
	err := s.db.QueryRow(
		`INSERT INTO entries (key, value, expires_at) VALUES (?1, ?2, ?3)
		 ON CONFLICT(key) DO UPDATE SET
			value = CASE
				WHEN entries.expires_at = 0 OR entries.expires_at > ?4
					THEN CAST(CAST(entries.value AS INTEGER) + CAST(excluded.value AS INTEGER) AS TEXT)
				ELSE excluded.value
			END,
			expires_at = CASE
				WHEN entries.expires_at = 0 OR entries.expires_at > ?4
					THEN entries.expires_at
				ELSE excluded.expires_at
			END
		 RETURNING CAST(value AS INTEGER)`,
		key, strconv.FormatInt(amount, 10), expiresAt, now,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("incrementing %s: %w", key, err)
	}
	return count, nil
}

// TTL returns the remaining lifetime of key, or false when the key is
// absent, expired, or stored without expiry.
func (s *Store) TTL(key string) (time.Duration, bool) {
	if s == nil || s.db == nil {
		return 0, false
	}

	var expiresAt int64
	err := s.db.QueryRow(`SELECT expires_at FROM entries WHERE key = ?`, key).Scan(&expiresAt)
	if err != nil || expiresAt == 0 {
		return 0, false
	}
	remaining := time.Unix(expiresAt, 0).Sub(Clock())
	if remaining <= 0 {
		return 0, false
	}
	return remaining, true
}

// Purge removes all expired entries and returns the number removed.
func (s *Store) Purge() (int, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res, err := s.db.Exec(`DELETE FROM entries WHERE expires_at != 0 AND expires_at <= ?`, Clock().Unix())
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Len returns the number of unexpired entries.
func (s *Store) Len() (int, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM entries WHERE expires_at = 0 OR expires_at > ?`, Clock().Unix(),
	).Scan(&n)
	return n, err
}

func (s *Store) warnf(format string, args ...any) {
	if s.w == nil {
		return
	}
	fmt.Fprintf(s.w, "warning: "+format+"\n", args...)
}

// Key derives a stable cache key from a logical stage name and its
// effective arguments. The key is the stage name plus the first 16 hex
// characters of SHA-256 over the arguments, so identical calls map to the
// same entry regardless of call site (R1.4).
func Key(stage string, args ...string) string {
	h := sha256.New()
	for _, a := range args {
		h.Write([]byte(a))
		h.Write([]byte{0})
	}
	return stage + ":" + fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// WithCache returns the cached value under key when present, and otherwise
// invokes compute, stores its result with the given TTL, and returns it.
// Errors from compute are never cached. A nil store degrades to calling
// compute directly (R4.1).
func WithCache[T any](s *Store, key string, ttl time.Duration, compute func() (T, error)) (T, error) {
	var cached T
	if s.Get(key, &cached) {
		return cached, nil
	}

	value, err := compute()
	if err != nil {
		return value, err
	}
	s.Set(key, value, ttl)
	return value, nil
}
