package links

import (
	"reflect"
	"testing"
)

// chain builds a -> b -> c -> d (undirected once indexed).
func chainEngine() *Engine {
	e := NewEngine(10)
	e.Rebuild([]NoteLinks{
		{Slug: "a", Targets: []LinkTarget{lt("b")}},
		{Slug: "b", Targets: []LinkTarget{lt("c")}},
		{Slug: "c", Targets: []LinkTarget{lt("d")}},
		{Slug: "d"},
	})
	return e
}

func TestShortestPath_Chain(t *testing.T) {
	e := chainEngine()
	path, ok := e.ShortestPath("a", "d", 10)
	if !ok {
		t.Fatal("expected a path")
	}
	want := []string{"a", "b", "c", "d"}
	if !reflect.DeepEqual(path, want) {
		t.Errorf("path = %v, want %v", path, want)
	}
}

func TestShortestPath_SameNode(t *testing.T) {
	e := chainEngine()
	path, ok := e.ShortestPath("a", "a", 10)
	if !ok || !reflect.DeepEqual(path, []string{"a"}) {
		t.Errorf("path = %v ok=%v, want [a] true", path, ok)
	}
}

func TestShortestPath_BeyondMaxDepth(t *testing.T) {
	e := chainEngine()
	if _, ok := e.ShortestPath("a", "d", 1); ok {
		t.Error("expected no path within depth 1")
	}
}

func TestShortestPath_UnknownSlug(t *testing.T) {
	e := chainEngine()
	if _, ok := e.ShortestPath("a", "nonexistent", 10); ok {
		t.Error("expected no path to an unknown slug")
	}
}

func TestNeighbors_GroupedByDistance(t *testing.T) {
	e := chainEngine()
	groups := e.Neighbors("a", 2)
	if len(groups) != 2 {
		t.Fatalf("groups = %+v, want 2 distance buckets", groups)
	}
	if groups[0].Distance != 1 || !reflect.DeepEqual(groups[0].Slugs, []string{"b"}) {
		t.Errorf("distance-1 group = %+v, want [b]", groups[0])
	}
	if groups[1].Distance != 2 || !reflect.DeepEqual(groups[1].Slugs, []string{"c"}) {
		t.Errorf("distance-2 group = %+v, want [c]", groups[1])
	}
}

func TestMultiShortestPaths_Backbone(t *testing.T) {
	// star: hub connects to a, b, c independently.
	e := NewEngine(10)
	e.Rebuild([]NoteLinks{
		{Slug: "hub", Targets: []LinkTarget{lt("a"), lt("b"), lt("c")}},
		{Slug: "a"}, {Slug: "b"}, {Slug: "c"},
	})

	backbone := e.MultiShortestPaths([]string{"a", "b", "c"}, 5)
	for _, want := range []string{"a", "b", "c", "hub"} {
		found := false
		for _, s := range backbone {
			if s == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("backbone %v missing %q", backbone, want)
		}
	}
}

func TestKeywordMatch_RanksByOverlapTuple(t *testing.T) {
	e := NewEngine(10)
	e.Rebuild([]NoteLinks{
		{Slug: "bfs-notes", Title: "Breadth First Search", Tags: []string{"graphs", "bfs"}, BodyTokens: []string{"queue", "frontier"}},
		{Slug: "dfs-notes", Title: "Depth First Search", Tags: []string{"graphs"}, BodyTokens: []string{"stack"}},
		{Slug: "unrelated", Title: "Cooking", Tags: []string{"food"}},
	})

	results := e.KeywordMatch([]string{"graphs", "bfs", "queue"}, 0)
	if len(results) != 2 {
		t.Fatalf("results = %+v, want 2 matches", results)
	}
	if results[0].Slug != "bfs-notes" {
		t.Errorf("top result = %q, want bfs-notes (higher tag overlap)", results[0].Slug)
	}
}

func TestKeywordMatch_LimitTruncates(t *testing.T) {
	e := NewEngine(10)
	e.Rebuild([]NoteLinks{
		{Slug: "x1", Tags: []string{"go"}},
		{Slug: "x2", Tags: []string{"go"}},
		{Slug: "x3", Tags: []string{"go"}},
	})
	results := e.KeywordMatch([]string{"go"}, 2)
	if len(results) != 2 {
		t.Errorf("len(results) = %d, want 2", len(results))
	}
}
