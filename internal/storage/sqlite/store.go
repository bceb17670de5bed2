// Package sqlite provides a SQLite-backed durable slot for the cart snapshot.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultTimeout bounds every statement issued by a Store.
const DefaultTimeout = 5 * time.Second

const schema = `CREATE TABLE IF NOT EXISTS slots (
	slot_key   TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store provides SQLite-backed persistence for named slots.
type Store struct {
	sqlDB   *sql.DB
	timeout time.Duration
	now     func() time.Time
}

// Open opens (creating if needed) a slot database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB, timeout: DefaultTimeout, now: time.Now}

	ctx, cancel := store.context()
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create slots table: %w", err)
	}
	return store, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Get loads a slot by key.
func (s *Store) Get(key string) ([]byte, bool, error) {
	if s == nil || s.sqlDB == nil {
		return nil, false, fmt.Errorf("storage is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, fmt.Errorf("slot key is required")
	}

	ctx, cancel := s.context()
	defer cancel()

	var value string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM slots WHERE slot_key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get slot %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Set upserts a slot by key.
func (s *Store) Set(key string, data []byte) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("slot key is required")
	}

	ctx, cancel := s.context()
	defer cancel()

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO slots (slot_key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(slot_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put slot %s: %w", key, err)
	}
	return nil
}

// Delete removes a slot by key. Deleting a missing slot is not an error.
func (s *Store) Delete(key string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	ctx, cancel := s.context()
	defer cancel()

	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM slots WHERE slot_key = ?`, strings.TrimSpace(key)); err != nil {
		return fmt.Errorf("delete slot %s: %w", key, err)
	}
	return nil
}

// UpdatedAt reports when a slot was last written.
func (s *Store) UpdatedAt(key string) (time.Time, bool, error) {
	if s == nil || s.sqlDB == nil {
		return time.Time{}, false, fmt.Errorf("storage is not configured")
	}

	ctx, cancel := s.context()
	defer cancel()

	var millis int64
	err := s.sqlDB.QueryRowContext(ctx, `SELECT updated_at FROM slots WHERE slot_key = ?`, strings.TrimSpace(key)).Scan(&millis)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("get slot %s: %w", key, err)
	}
	return time.UnixMilli(millis).UTC(), true, nil
}
