// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/delta-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrDatabaseError = errors.New("database error")
	ErrStoreClosed   = errors.New("store is closed")
)

// =============================================================================
// SCHEMA
// =============================================================================

// SchemaVersion tracks the database schema version for migrations
const SchemaVersion = 1

const schema = `
-- Metadata table for schema version and store state
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Sessions table: whole-session JSON snapshots, position preserves order
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    created_at INTEGER NOT NULL, -- Unix timestamp
    data TEXT NOT NULL           -- JSON-encoded session
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_sessions_position ON sessions(position);

-- Settings table: key/value pairs, values are JSON
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;
`

const initMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
INSERT OR IGNORE INTO metadata (key, value) VALUES ('created_at', strftime('%s', 'now'));
`

// =============================================================================
// STORE
// =============================================================================

// Store persists sessions and settings to a SQLite database.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	mu     sync.Mutex
	closed bool
}

// Open opens (creating if necessary) the database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(initMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &Store{db: db, path: path, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// =============================================================================
// SESSION SNAPSHOTS
// =============================================================================

// SaveSessions replaces the persisted session snapshot with the given list.
// The whole replace runs in one transaction so a crash leaves either the
// old snapshot or the new one, never a mix.
func (s *Store) SaveSessions(sessions []*model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM sessions"); err != nil {
		return fmt.Errorf("%w: clear sessions: %v", ErrDatabaseError, err)
	}

	stmt, err := tx.Prepare(
		"INSERT INTO sessions (id, position, created_at, data) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", ErrDatabaseError, err)
	}
	defer stmt.Close()

	for i, sess := range sessions {
		data, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("failed to encode session %s: %w", sess.ID, err)
		}
		if _, err := stmt.Exec(sess.ID, i, sess.CreatedAt.Unix(), string(data)); err != nil {
			return fmt.Errorf("%w: insert session %s: %v", ErrDatabaseError, sess.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrDatabaseError, err)
	}
	return nil
}

// LoadSessions loads the persisted session snapshot in saved order.
// Corrupt rows are skipped with a warning rather than failing the load.
func (s *Store) LoadSessions() ([]*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query("SELECT id, data FROM sessions ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("%w: query sessions: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			s.logger.Warn("skipping unreadable session row", "error", err)
			continue
		}
		var sess model.Session
		if err := json.Unmarshal([]byte(data), &sess); err != nil {
			s.logger.Warn("skipping corrupt session row", "id", id, "error", err)
			continue
		}
		sessions = append(sessions, &sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate sessions: %v", ErrDatabaseError, err)
	}
	return sessions, nil
}

// =============================================================================
// SETTINGS KV
// =============================================================================

// SettingsKey is the key under which user settings are stored.
const SettingsKey = "user_settings"

// PutValue stores a JSON value under key.
func (s *Store) PutValue(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, string(value))
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrDatabaseError, key, err)
	}
	return nil
}

// GetValue retrieves the JSON value under key.
// Returns (nil, nil) when the key does not exist.
func (s *Store) GetValue(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrDatabaseError, key, err)
	}
	return []byte(value), nil
}
