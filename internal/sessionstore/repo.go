package sessionstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wayfare/learnctl/internal/apperr"
	"github.com/wayfare/learnctl/internal/models"
)

// Save upserts a session's full state, including its stage records and
// event log, serialized as JSON in the payload column. Full-row
// replacement keeps this store a thin durability layer behind the
// in-memory Orchestrator, not a query engine over session internals.
func (s *Store) Save(session *models.LearningSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("sessionstore: marshal session: %w", err)
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("sessionstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO sessions (id, query, status, stage_index, progress, created_at, updated_at, error, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status      = excluded.status,
			stage_index = excluded.stage_index,
			progress    = excluded.progress,
			updated_at  = excluded.updated_at,
			error       = excluded.error,
			payload     = excluded.payload
	`, session.ID, session.Query, string(session.Status), session.StageIndex, session.Progress,
		session.CreatedAt, session.UpdatedAt, session.Error, string(payload))
	if err != nil {
		return fmt.Errorf("sessionstore: save session %s: %w", session.ID, err)
	}

	if err := ftsUpsert(tx, session.ID, session.Query, string(payload)); err != nil {
		return err
	}

	return tx.Commit()
}

// Load reads back a session by id. Returns apperr.ErrSessionNotFound if
// no row exists.
func (s *Store) Load(id string) (*models.LearningSession, error) {
	var payload string
	err := s.conn.QueryRow(`SELECT payload FROM sessions WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("sessionstore: load session %s: %w", id, err)
	}

	var session models.LearningSession
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("sessionstore: unmarshal session %s: %w", id, err)
	}
	return &session, nil
}

// Delete removes a session and its tool-call frame audit trail.
func (s *Store) Delete(id string) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("sessionstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM tool_call_frames WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("sessionstore: delete frames for %s: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sessionstore: delete session %s: %w", id, err)
	}
	ftsDelete(tx, id)
	return tx.Commit()
}

// ListIDs returns every session id currently persisted, oldest updated
// first, for TTL sweeps run against durable state rather than the
// in-memory registry alone.
func (s *Store) ListIDs() ([]string, error) {
	rows, err := s.conn.Query(`SELECT id FROM sessions ORDER BY updated_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("sessionstore: list ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AppendFrame records one tool-call frame for a session's audit trail.
func (s *Store) AppendFrame(sessionID string, stage models.StageName, frame models.ToolCallFrame, createdAt time.Time) error {
	_, err := s.conn.Exec(`
		INSERT INTO tool_call_frames (session_id, stage, kind, target, raw_text, result, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sessionID, string(stage), frame.Kind, frame.Target, frame.RawText, frame.Result, frame.Err, createdAt)
	if err != nil {
		return fmt.Errorf("sessionstore: append frame for %s: %w", sessionID, err)
	}
	return nil
}
