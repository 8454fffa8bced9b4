package sessionstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wayfare/learnctl/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "sessionstore-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := testStore(t)
	now := time.Now().UTC()
	session := models.NewLearningSession("sess-1", "learn channels", now)

	if err := store.Save(session); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load("sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Query != "learn channels" {
		t.Fatalf("unexpected query: %s", loaded.Query)
	}
	if len(loaded.Stages) != len(models.StageOrder) {
		t.Fatalf("expected %d stages, got %d", len(models.StageOrder), len(loaded.Stages))
	}
}

func TestLoadMissingReturnsNotFound(t *testing.T) {
	store := testStore(t)
	if _, err := store.Load("missing"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestDeleteRemovesSessionAndFrames(t *testing.T) {
	store := testStore(t)
	now := time.Now().UTC()
	session := models.NewLearningSession("sess-2", "q", now)
	if err := store.Save(session); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.AppendFrame("sess-2", models.StagePriestess, models.ToolCallFrame{Kind: "search", Target: "vault_search"}, now); err != nil {
		t.Fatalf("append frame: %v", err)
	}

	if err := store.Delete("sess-2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load("sess-2"); err == nil {
		t.Fatal("expected session to be gone after delete")
	}
}

func TestListIDsOrderedByUpdatedAt(t *testing.T) {
	store := testStore(t)
	base := time.Now().UTC()
	older := models.NewLearningSession("older", "q", base.Add(-time.Hour))
	newer := models.NewLearningSession("newer", "q", base)
	if err := store.Save(older); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(newer); err != nil {
		t.Fatal(err)
	}

	ids, err := store.ListIDs()
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if len(ids) != 2 || ids[0] != "older" || ids[1] != "newer" {
		t.Fatalf("unexpected order: %v", ids)
	}
}

func TestSearch_FindsSessionByQueryText(t *testing.T) {
	store := testStore(t)
	now := time.Now().UTC()
	session := models.NewLearningSession("sess-search", "learn about goroutines", now)
	if err := store.Save(session); err != nil {
		t.Fatalf("save: %v", err)
	}

	results, err := store.Search("goroutines", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].SessionID != "sess-search" {
		t.Fatalf("expected sess-search, got %+v", results)
	}
}

func TestSnapshotWritesReadableJSON(t *testing.T) {
	dir := t.TempDir()
	session := models.NewLearningSession("sess-3", "q", time.Now().UTC())

	path, err := Snapshot(dir, session)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("unexpected snapshot dir: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty snapshot file")
	}
}
