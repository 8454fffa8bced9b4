package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wayfare/learnctl/internal/agent"
	"github.com/wayfare/learnctl/internal/ctxbuild"
	"github.com/wayfare/learnctl/internal/events"
	"github.com/wayfare/learnctl/internal/links"
	"github.com/wayfare/learnctl/internal/orchestrator"
	"github.com/wayfare/learnctl/internal/testutil"
	"github.com/wayfare/learnctl/internal/toolloop"
	"github.com/wayfare/learnctl/internal/vault"
)

type stubNotes struct{}

func (stubNotes) ReadSummary(slug string) (string, string, string, bool) { return slug, "s", "b", true }
func (stubNotes) Outgoing(slug string) []string                         { return nil }

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	_, provider := testutil.TestVault(t)
	store := vault.NewStore(provider)
	engine := links.NewEngine(links.DefaultDensityK)
	mgr := ctxbuild.NewManager("prefix", nil, ctxbuild.DefaultTiers(), stubNotes{}, nil, 10)

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
	return NewRouter(orch)
}

func TestHealthLive(t *testing.T) {
	srv := httptest.NewServer(testRouter(t))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health/live")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestOrchestrateAndGetSession(t *testing.T) {
	srv := httptest.NewServer(testRouter(t))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/orchestrate", "application/json", strings.NewReader(`{"query":"learn channels"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	id := out["session_id"]
	if id == "" {
		t.Fatal("expected a session id")
	}

	getResp, err := http.Get(srv.URL + "/sessions/" + id)
	if err != nil {
		t.Fatal(err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", getResp.StatusCode)
	}
}

func TestGetSession_UnknownReturnsNotFound(t *testing.T) {
	srv := httptest.NewServer(testRouter(t))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/sessions/does-not-exist")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestOrchestrate_RejectsEmptyQuery(t *testing.T) {
	srv := httptest.NewServer(testRouter(t))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/orchestrate", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}
