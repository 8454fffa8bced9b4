package mcphost

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wayfare/learnctl/internal/agent"
	"github.com/wayfare/learnctl/internal/ctxbuild"
	"github.com/wayfare/learnctl/internal/events"
	"github.com/wayfare/learnctl/internal/links"
	"github.com/wayfare/learnctl/internal/orchestrator"
	"github.com/wayfare/learnctl/internal/sessionstore"
	"github.com/wayfare/learnctl/internal/testutil"
	"github.com/wayfare/learnctl/internal/toolloop"
	"github.com/wayfare/learnctl/internal/vault"
)

type fakeNotes struct{}

func (fakeNotes) ReadSummary(slug string) (string, string, string, bool) {
	return slug, "summary", "body", true
}
func (fakeNotes) Outgoing(slug string) []string { return nil }

func testServer(t *testing.T) *Server {
	t.Helper()
	_, provider := testutil.TestVault(t)
	store := vault.NewStore(provider)

	engine := links.NewEngine(links.DefaultDensityK)
	engine.Rebuild([]links.NoteLinks{
		{Slug: "go", Title: "Go", BodyTokens: []string{"go", "concurrency"}},
		{Slug: "channels", Title: "Channels",
			Targets:    []links.LinkTarget{{Slug: "go", Display: "Go"}},
			BodyTokens: []string{"channels"}},
		{Slug: "missing-target", Title: "Missing",
			Targets: []links.LinkTarget{{Slug: "nowhere", Display: "Nowhere"}}},
	})

	mgr := ctxbuild.NewManager("prefix", nil, ctxbuild.DefaultTiers(), fakeNotes{}, nil, 10)
	deps := agent.Deps{
		LLM:        &testutil.FakeLLM{},
		Context:    mgr,
		Links:      engine,
		Vault:      store,
		Tools:      toolloop.NewRegistry(),
		MaxDepth:   3,
		MaxPathLen: agent.DefaultMaxPathLength,
	}
	orch := orchestrator.NewManager(deps, events.NewBroker(), 2, time.Hour)

	dbFile, err := os.CreateTemp("", "mcphost-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })
	history, err := sessionstore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { history.Close() })

	return New(engine, orch, history)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error
	switch name {
	case "keyword_match":
		result, err = srv.keywordMatch(ctx, req)
	case "neighbors":
		result, err = srv.neighbors(ctx, req)
	case "shortest_path":
		result, err = srv.shortestPath(ctx, req)
	case "dangling_links":
		result, err = srv.danglingLinks(ctx, req)
	case "get_session":
		result, err = srv.getSession(ctx, req)
	case "orchestrate":
		result, err = srv.orchestrate(ctx, req)
	case "search_history":
		result, err = srv.searchHistory(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestKeywordMatch_ReturnsRankedResults(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "keyword_match", map[string]interface{}{"query": "concurrency"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	if resultText(r) == "" {
		t.Fatal("expected non-empty result")
	}
}

func TestShortestPath_FindsPath(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "shortest_path", map[string]interface{}{"from": "channels", "to": "go"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
}

func TestShortestPath_NoPathIsToolError(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "shortest_path", map[string]interface{}{"from": "go", "to": "nowhere"})
	if !r.IsError {
		t.Fatal("expected tool error for unreachable slug")
	}
}

func TestDanglingLinks_ReportsMissingTarget(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "dangling_links", map[string]interface{}{})
	text := resultText(r)
	if text == "" || text == "{}" {
		t.Fatalf("expected dangling link entry, got %q", text)
	}
}

func TestOrchestrateAndGetSession(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "orchestrate", map[string]interface{}{"query": "learn channels"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
}

func TestSearchHistory_FindsPersistedSession(t *testing.T) {
	srv := testServer(t)
	id := srv.orch.Start("learn channels deeply")
	session, err := srv.orch.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := srv.history.Save(session); err != nil {
		t.Fatalf("save: %v", err)
	}

	found := callTool(t, srv, "search_history", map[string]interface{}{"query": "channels"})
	if found.IsError {
		t.Fatalf("unexpected error: %s", resultText(found))
	}
	if resultText(found) == "[]" || resultText(found) == "" {
		t.Fatalf("expected a match, got %q", resultText(found))
	}
}
