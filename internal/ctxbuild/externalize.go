package ctxbuild

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Externalizer persists oversized or compacted content to durable storage
// and returns a stable reference a later turn can use to recover it
// verbatim — the mechanism that keeps tier-F overflow (§4.5) and history
// compaction (§4.5 "lossless... keyed by a stable reference") from ever
// discarding information.
type Externalizer interface {
	Externalize(key, content string) (ref string, err error)
	Recover(ref string) (string, error)
}

// FileExternalizer writes content under a fixed directory, keyed by a
// content hash so repeated externalization of identical content is
// idempotent.
type FileExternalizer struct {
	dir string
}

// NewFileExternalizer creates an externalizer rooted at dir, creating it if
// necessary.
func NewFileExternalizer(dir string) (*FileExternalizer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ctxbuild: create externalize dir: %w", err)
	}
	return &FileExternalizer{dir: dir}, nil
}

// Externalize writes content to a file named after key and a content hash,
// returning its path as the stable reference.
func (f *FileExternalizer) Externalize(key, content string) (string, error) {
	sum := sha256.Sum256([]byte(content))
	name := fmt.Sprintf("%s-%s.txt", sanitizeKey(key), hex.EncodeToString(sum[:8]))
	path := filepath.Join(f.dir, name)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("ctxbuild: externalize %s: %w", key, err)
	}
	return path, nil
}

// Recover reads back a previously externalized reference.
func (f *FileExternalizer) Recover(ref string) (string, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return "", fmt.Errorf("ctxbuild: recover %s: %w", ref, err)
	}
	return string(data), nil
}

func sanitizeKey(key string) string {
	out := make([]rune, 0, len(key))
	for _, r := range key {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}
