package agent

import (
	"context"
	"testing"

	"github.com/wayfare/learnctl/internal/ctxbuild"
	"github.com/wayfare/learnctl/internal/links"
	"github.com/wayfare/learnctl/internal/llm"
	"github.com/wayfare/learnctl/internal/models"
	"github.com/wayfare/learnctl/internal/testutil"
	"github.com/wayfare/learnctl/internal/toolloop"
	"github.com/wayfare/learnctl/internal/vault"
)

type fakeNoteSource struct{}

func (fakeNoteSource) ReadSummary(slug string) (string, string, string, bool) {
	return slug, "summary of " + slug, "body of " + slug, true
}
func (fakeNoteSource) Outgoing(slug string) []string { return nil }

func newTestDeps(t *testing.T, responses []llm.Response) (Deps, *testutil.FakeLLM) {
	t.Helper()
	_, provider := testutil.TestVault(t)
	store := vault.NewStore(provider)

	engine := links.NewEngine(links.DefaultDensityK)
	engine.Rebuild([]links.NoteLinks{
		{Slug: "go", Title: "Go", Tags: []string{"lang"}, BodyTokens: []string{"go", "concurrency"}},
		{Slug: "channels", Title: "Channels", Tags: []string{"lang"},
			Targets:    []links.LinkTarget{{Slug: "go", Display: "Go"}},
			BodyTokens: []string{"channels", "concurrency"}},
	})

	mgr := ctxbuild.NewManager("system prompt", nil, ctxbuild.DefaultTiers(), fakeNoteSource{}, nil, 20)

	fake := &testutil.FakeLLM{Responses: responses}
	return Deps{
		LLM:        fake,
		Context:    mgr,
		Links:      engine,
		Vault:      store,
		Tools:      toolloop.NewRegistry(),
		MaxDepth:   3,
		MaxPathLen: DefaultMaxPathLength,
	}, fake
}

func TestRunPriestess_ParsesKnownUnknown(t *testing.T) {
	deps, _ := newTestDeps(t, []llm.Response{
		{Content: "KNOWN: go\nUNKNOWN: channels\nLOAD_FLAGS: none\nRATIONALE: learner knows go basics"},
	})

	result, err := Run(context.Background(), models.StagePriestess, deps, StageInput{Query: "channels in go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Agent != models.StagePriestess {
		t.Fatalf("unexpected agent: %v", result.Agent)
	}
	known := metaStrings(result, "known")
	if len(known) != 1 || known[0] != "go" {
		t.Fatalf("unexpected known: %v", known)
	}
}

func TestRunHermit_RejectsOverlongPath(t *testing.T) {
	deps, _ := newTestDeps(t, []llm.Response{
		{Content: "PATH: a,b,c,d,e,f,g,h,i,j,k,l,m\nRATIONALE: too long"},
	})
	deps.MaxPathLen = 3

	prior := map[models.StageName]models.AgentResult{
		models.StagePriestess: {Metadata: map[string]any{"known": []string{"go"}, "unknown": []string{"channels"}}},
	}

	_, err := Run(context.Background(), models.StageHermit, deps, StageInput{Query: "q", Prior: prior})
	if err == nil {
		t.Fatal("expected path-too-long error")
	}
}

func TestRunMagician_RejectsDraftMissingRequiredLinks(t *testing.T) {
	deps, _ := newTestDeps(t, []llm.Response{
		{Content: "SLUG: new-note\nTITLE: New Note\nBODY: this has no links at all"},
	})

	prior := map[models.StageName]models.AgentResult{
		models.StageHermit: {Metadata: map[string]any{"path": []string{"go"}, "known": []string{"go"}}},
	}

	_, err := Run(context.Background(), models.StageMagician, deps, StageInput{Query: "q", Prior: prior})
	if err == nil {
		t.Fatal("expected missing-links error")
	}
}

func TestRunMagician_AcceptsDraftWithRequiredLink(t *testing.T) {
	deps, _ := newTestDeps(t, []llm.Response{
		{Content: "SLUG: new-note\nTITLE: New Note\nBODY: see [[go]] for background"},
	})

	prior := map[models.StageName]models.AgentResult{
		models.StageHermit: {Metadata: map[string]any{"path": []string{"go"}, "known": []string{"go"}}},
	}

	result, err := Run(context.Background(), models.StageMagician, deps, StageInput{Query: "q", Prior: prior})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	drafts, _ := result.Metadata["drafts"].([]DraftNote)
	if len(drafts) != 1 || drafts[0].Slug != "new-note" {
		t.Fatalf("unexpected drafts: %+v", drafts)
	}
}

func TestRunJustice_SplitsQuestionsOnPipe(t *testing.T) {
	deps, _ := newTestDeps(t, []llm.Response{
		{Content: "QUESTIONS: what is a channel? | why does it block?"},
	})

	prior := map[models.StageName]models.AgentResult{
		models.StageMagician: {Content: "see [[go]] for background"},
	}

	result, err := Run(context.Background(), models.StageJustice, deps, StageInput{Query: "q", Prior: prior})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	questions := metaStrings(result, "questions")
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %v", questions)
	}
}

func TestRunEmpress_WritesDraftsAndReindexes(t *testing.T) {
	deps, _ := newTestDeps(t, nil)

	prior := map[models.StageName]models.AgentResult{
		models.StageMagician: {Metadata: map[string]any{
			"drafts": []DraftNote{
				{Slug: "new-note", Title: "New Note", Body: "see [[go]] for background"},
			},
		}},
	}

	result, err := Run(context.Background(), models.StageEmpress, deps, StageInput{Query: "q", Prior: prior})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	created := metaStrings(result, "created")
	if len(created) != 1 || created[0] != "new-note" {
		t.Fatalf("unexpected created: %v", created)
	}
	if !deps.Vault.Exists("new-note") {
		t.Fatal("expected new-note to be written to the vault")
	}
	if got := deps.Links.Outgoing("new-note"); len(got) != 1 || got[0] != "go" {
		t.Fatalf("expected new-note to link to go, got %v", got)
	}
}

func TestRun_UnknownStage(t *testing.T) {
	deps, _ := newTestDeps(t, nil)
	_, err := Run(context.Background(), models.StageName("unknown"), deps, StageInput{})
	if err == nil {
		t.Fatal("expected error for unknown stage")
	}
}
