//go:build sqlite_fts5

package sessionstore

import (
	"database/sql"
	"fmt"
)

// initFTS creates the FTS5 virtual table backing Search. Adapted from
// kenaz's internal/index/fts_fts5.go, repointed at session history
// (query + full JSON payload) instead of note bodies: the Link Engine's
// own keyword_match (§4.3) already covers note search in memory.
func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS sessions_fts USING fts5(
			session_id UNINDEXED,
			query,
			payload,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, sessionID, query, payload string) error {
	_, _ = tx.Exec(`DELETE FROM sessions_fts WHERE session_id = ?`, sessionID)
	_, err := tx.Exec(`INSERT INTO sessions_fts (session_id, query, payload) VALUES (?, ?, ?)`,
		sessionID, query, payload)
	if err != nil {
		return fmt.Errorf("sessionstore: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, sessionID string) {
	_, _ = tx.Exec(`DELETE FROM sessions_fts WHERE session_id = ?`, sessionID)
}

// Search performs an FTS5 full-text search over session queries and
// payloads, returning matching session ids with a snippet of the match.
func (s *Store) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.Query(`
		SELECT session_id,
		       snippet(sessions_fts, 1, '<b>', '</b>', '...', 32)
		FROM sessions_fts
		WHERE sessions_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("sessionstore: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.SessionID, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
