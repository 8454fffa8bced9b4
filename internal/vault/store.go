package vault

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wayfare/learnctl/internal/apperr"
	"github.com/wayfare/learnctl/internal/models"
	"github.com/wayfare/learnctl/internal/parser"
	"github.com/wayfare/learnctl/internal/slug"
)

// Store is the Note Store (§4.1): the sole writer of vault markdown files,
// front-matter aware, with path safety and atomic writes delegated to a
// Provider.
//
// A note's slug (used by callers, the Link Engine, and the Context
// Manager) is derived from its file name by slug.FromPath, which is
// lossy: "Random Variable.md" and "random_variable.md" both normalise to
// the slug "random_variable". Store keeps a slug-to-actual-path index
// built from what Provider.List reports, so Read/Write/Delete/Exists
// resolve a slug back to whatever file really produced it instead of
// re-deriving a path that may not exist on disk.
type Store struct {
	fs Provider

	mu    sync.RWMutex
	paths map[string]string
}

// NewStore wraps a Provider as a Note Store.
func NewStore(fs Provider) *Store {
	s := &Store{fs: fs, paths: map[string]string{}}
	s.refreshIndex()
	return s
}

// refreshIndex rebuilds the slug-to-path index from Provider.List. Best
// effort: a listing failure just leaves the previous index in place.
func (s *Store) refreshIndex() {
	paths, err := s.fs.List()
	if err != nil {
		return
	}
	index := make(map[string]string, len(paths))
	for _, p := range paths {
		index[slug.FromPath(p)] = p
	}
	s.mu.Lock()
	s.paths = index
	s.mu.Unlock()
}

// resolvePath returns the actual vault-relative path for noteSlug. If the
// slug isn't in the index yet, it refreshes once from disk before falling
// back to the canonical slug+".md" path, which is correct for a note that
// genuinely doesn't exist yet (e.g. the target of an upcoming Write).
func (s *Store) resolvePath(noteSlug string) string {
	s.mu.RLock()
	p, ok := s.paths[noteSlug]
	s.mu.RUnlock()
	if ok {
		return p
	}

	s.refreshIndex()
	s.mu.RLock()
	p, ok = s.paths[noteSlug]
	s.mu.RUnlock()
	if ok {
		return p
	}
	return pathForSlug(noteSlug)
}

func (s *Store) setPath(noteSlug, path string) {
	s.mu.Lock()
	s.paths[noteSlug] = path
	s.mu.Unlock()
}

func (s *Store) dropPath(noteSlug string) {
	s.mu.Lock()
	delete(s.paths, noteSlug)
	s.mu.Unlock()
}

func pathForSlug(s string) string {
	return strings.TrimSuffix(s, ".md") + ".md"
}

// List returns metadata for every note currently in the vault, refreshing
// the slug-to-path index as a side effect.
func (s *Store) List() ([]models.NoteMetadata, error) {
	paths, err := s.fs.List()
	if err != nil {
		return nil, err
	}
	index := make(map[string]string, len(paths))
	out := make([]models.NoteMetadata, 0, len(paths))
	for _, p := range paths {
		noteSlug := slug.FromPath(p)
		index[noteSlug] = p
		data, err := s.fs.Read(p)
		if err != nil {
			continue
		}
		res, perr := parser.Parse(data)
		title := ""
		if perr == nil && res != nil {
			title = res.Title
		}
		out = append(out, models.NoteMetadata{
			Slug:  noteSlug,
			Path:  p,
			Title: title,
		})
	}
	s.mu.Lock()
	s.paths = index
	s.mu.Unlock()
	return out, nil
}

// Read loads and parses the note at slug. Returns apperr.ErrNotFound if it
// does not exist. The body is returned verbatim; front-matter is parsed
// but not normalised.
func (s *Store) Read(noteSlug string) (*models.Note, error) {
	path := s.resolvePath(noteSlug)
	data, err := s.fs.Read(path)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		// Parse error (§7): best-effort, never fatal to a single read.
		res = &parser.Result{Body: string(data)}
	}

	note := &models.Note{
		Slug:        slug.FromPath(path),
		Path:        path,
		Title:       res.Title,
		Body:        res.Body,
		Frontmatter: res.Frontmatter,
		Tags:        res.Tags,
	}
	note.CreatedAt = timeField(res.Frontmatter, "created")
	note.UpdatedAt = timeField(res.Frontmatter, "modified")
	if res.Frontmatter != nil {
		if v, ok := res.Frontmatter["summary"].(string); ok {
			note.Summary = v
		}
		note.Complexity = intField(res.Frontmatter, "complexity")
		note.Mastery = intField(res.Frontmatter, "mastery_level")
	}
	return note, nil
}

// Write serializes frontmatter+body and atomically writes it to the note's
// file. The creation timestamp, if already present on disk, is preserved;
// the modification timestamp is always set to the wall clock. frontmatter
// may be nil.
func (s *Store) Write(noteSlug string, frontmatter map[string]interface{}, body string) error {
	path := s.resolvePath(noteSlug)
	now := time.Now().UTC()

	fm := map[string]interface{}{}
	for k, v := range frontmatter {
		fm[k] = v
	}

	if existing, err := s.Read(noteSlug); err == nil && !existing.CreatedAt.IsZero() {
		fm["created"] = existing.CreatedAt.Format(time.RFC3339)
	} else if _, ok := fm["created"]; !ok {
		fm["created"] = now.Format(time.RFC3339)
	}
	fm["modified"] = now.Format(time.RFC3339)

	header, err := serializeFrontMatter(fm)
	if err != nil {
		return fmt.Errorf("vault: serialize frontmatter: %w", err)
	}

	content := header + body
	if err := s.fs.Write(path, []byte(content)); err != nil {
		return err
	}
	s.setPath(noteSlug, path)
	return nil
}

// Delete removes the note's file from the vault.
func (s *Store) Delete(noteSlug string) error {
	path := s.resolvePath(noteSlug)
	if err := s.fs.Delete(path); err != nil {
		return err
	}
	s.dropPath(noteSlug)
	return nil
}

// Exists reports whether a note currently exists at slug.
func (s *Store) Exists(noteSlug string) bool {
	_, err := s.fs.Read(s.resolvePath(noteSlug))
	return err == nil
}

func timeField(fm map[string]interface{}, key string) time.Time {
	if fm == nil {
		return time.Time{}
	}
	raw, ok := fm[key]
	if !ok {
		return time.Time{}
	}
	switch v := raw.(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func intField(fm map[string]interface{}, key string) int {
	raw, ok := fm[key]
	if !ok {
		return 0
	}
	switch v := raw.(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// IsNotFound reports whether err indicates the note does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
