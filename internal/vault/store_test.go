package vault

import (
	"strings"
	"testing"
	"time"

	"github.com/wayfare/learnctl/internal/apperr"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return NewStore(fs)
}

func TestWriteAndReadRoundTrip(t *testing.T) {
	s := tempStore(t)
	if err := s.Write("a", map[string]interface{}{"title": "A"}, "See [[B]]\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	note, err := s.Read("a")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if note.Body != "See [[B]]\n" {
		t.Errorf("body = %q, want identical bytes back", note.Body)
	}
	if note.Title != "A" {
		t.Errorf("title = %q, want A", note.Title)
	}
}

func TestReadNotFound(t *testing.T) {
	s := tempStore(t)
	if _, err := s.Read("missing"); !IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestWritePreservesCreatedOnUpdate(t *testing.T) {
	s := tempStore(t)
	if err := s.Write("a", nil, "v1"); err != nil {
		t.Fatal(err)
	}
	first, err := s.Read("a")
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if err := s.Write("a", nil, "v2"); err != nil {
		t.Fatal(err)
	}
	second, err := s.Read("a")
	if err != nil {
		t.Fatal(err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created = %v, want preserved %v", second.CreatedAt, first.CreatedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) && !second.UpdatedAt.Equal(first.UpdatedAt) {
		t.Errorf("modified did not advance: first=%v second=%v", first.UpdatedAt, second.UpdatedAt)
	}
}

func TestPathEscapeRejected(t *testing.T) {
	s := tempStore(t)
	err := s.Write("../../etc/passwd", nil, "pwned")
	if err == nil {
		t.Fatal("expected path escape error")
	}
	if !strings.Contains(err.Error(), apperr.ErrPathEscape.Error()) {
		t.Errorf("error = %v, want path escape", err)
	}
}

func TestDelete(t *testing.T) {
	s := tempStore(t)
	if err := s.Write("gone", nil, "bye"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("gone"); !IsNotFound(err) {
		t.Errorf("expected not-found after delete, got %v", err)
	}
}

func TestReadResolvesNonCanonicalFileName(t *testing.T) {
	dir := t.TempDir()
	fsProvider, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if err := fsProvider.Write("Random Variable.md", []byte("A random variable assigns...\n")); err != nil {
		t.Fatalf("seed write: %v", err)
	}

	s := NewStore(fsProvider)
	note, err := s.Read("random_variable")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if note.Body != "A random variable assigns...\n" {
		t.Errorf("body = %q, want seeded content", note.Body)
	}
	if !s.Exists("random_variable") {
		t.Error("Exists = false, want true for a pre-existing non-canonical file name")
	}

	if err := s.Delete("random_variable"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := fsProvider.Read("Random Variable.md"); !IsNotFound(err) {
		t.Errorf("expected original file removed, got %v", err)
	}
}

func TestFrontMatterStableKeyOrder(t *testing.T) {
	s := tempStore(t)
	fm := map[string]interface{}{
		"zeta":  "last",
		"title": "Ordered",
		"alpha": "first-extra",
	}
	if err := s.Write("ordered", fm, "body"); err != nil {
		t.Fatal(err)
	}
	data, err := s.fs.Read("ordered.md")
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	titleIdx := strings.Index(text, "title:")
	alphaIdx := strings.Index(text, "alpha:")
	zetaIdx := strings.Index(text, "zeta:")
	if !(titleIdx < alphaIdx && alphaIdx < zetaIdx) {
		t.Errorf("key order not stable: title=%d alpha=%d zeta=%d", titleIdx, alphaIdx, zetaIdx)
	}
}
