package sessionstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wayfare/learnctl/internal/models"
)

// Snapshot writes session as a standalone, human-readable JSON file under
// dir, named after its id. This is the on-disk export SPEC_FULL.md adds
// on top of the spec's in-memory session model: a durable artifact a
// caller can archive or diff independently of the SQLite store, written
// the same atomic-rename way the Note Store writes vault files.
func Snapshot(dir string, session *models.LearningSession) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("sessionstore: snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return "", fmt.Errorf("sessionstore: marshal snapshot: %w", err)
	}

	path := filepath.Join(dir, session.ID+".json")
	tmp, err := os.CreateTemp(dir, ".snapshot-tmp-*")
	if err != nil {
		return "", fmt.Errorf("sessionstore: snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sessionstore: write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sessionstore: sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("sessionstore: close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("sessionstore: rename snapshot: %w", err)
	}
	return path, nil
}
