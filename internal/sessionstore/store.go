// Package sessionstore provides SQLite-backed persistence for learning
// sessions and their tool-call audit trail.
package sessionstore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	query       TEXT NOT NULL,
	status      TEXT NOT NULL,
	stage_index INTEGER NOT NULL DEFAULT 0,
	progress    REAL NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	payload     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tool_call_frames (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	stage      TEXT NOT NULL,
	kind       TEXT NOT NULL,
	target     TEXT NOT NULL,
	raw_text   TEXT NOT NULL DEFAULT '',
	result     TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_frames_session ON tool_call_frames(session_id);
`

// Store wraps a *sql.DB with session-specific operations.
type Store struct {
	conn *sql.DB
}

// SearchResult is one match from Search: a session id and a snippet of
// the matching text.
type SearchResult struct {
	SessionID string
	Snippet   string
}

// Open opens (or creates) the SQLite database at path and applies the
// schema. WAL mode and a busy timeout match kenaz's internal/index.Open,
// since a single writer (the Orchestrator) and multiple readers (the
// HTTP host, the MCP host) share the same file.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sessionstore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sessionstore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sessionstore: apply schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sessionstore: init fts: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
