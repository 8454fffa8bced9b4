package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wayfare/learnctl/internal/apperr"
	"github.com/wayfare/learnctl/internal/ctxbuild"
	"github.com/wayfare/learnctl/internal/llm"
	"github.com/wayfare/learnctl/internal/models"
	"github.com/wayfare/learnctl/internal/toolloop"
)

const magicianPrefix = `You are the Magician: a content-generation agent.
For the given concept, write a new Markdown passage teaching it. The
passage MUST include at least one [[link]] to a concept the learner
already knows and at least one [[link]] to its neighbor in the learning
path.
Respond with plain "KEY: value" lines, BODY last and spanning the rest of
the message:
SLUG: the slug for the new note
TITLE: the note title
BODY: the markdown passage, including [[links]]`

var draftLinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)

// DraftNote is one new note Magician proposes for a single path step.
type DraftNote struct {
	Slug  string
	Title string
	Body  string
}

// MagicianOutput is the structured result of the content-generation stage:
// one draft note per Hermit path step.
type MagicianOutput struct {
	Drafts []DraftNote
}

func runMagician(ctx context.Context, deps Deps, input StageInput) (models.AgentResult, error) {
	start := time.Now()

	hermit, ok := input.Prior[models.StageHermit]
	if !ok {
		return models.AgentResult{}, fmt.Errorf("agent: magician: missing hermit result")
	}
	path := metaStrings(hermit, "path")
	known := metaStrings(hermit, "known")

	var drafts []DraftNote
	for i, step := range path {
		var neighbor string
		if i+1 < len(path) {
			neighbor = path[i+1]
		} else if i > 0 {
			neighbor = path[i-1]
		}

		ranked := []ctxbuild.RankedNote{{Slug: step, Relevance: 0.9}}
		if neighbor != "" {
			ranked = append(ranked, ctxbuild.RankedNote{Slug: neighbor, Relevance: 0.6})
		}

		prompt, err := deps.Context.Build(ranked, ctxbuild.UserState{
			Query: fmt.Sprintf("teach %q; known concepts: %v; path neighbor: %s", step, known, neighbor),
		}, nil)
		if err != nil {
			return models.AgentResult{}, fmt.Errorf("agent: magician build context for %s: %w", step, err)
		}

		result, err := toolloop.RunLoop(ctx, deps.LLM, deps.Tools, llm.Options{}, []llm.Message{
			{Role: llm.RoleSystem, Text: magicianPrefix},
			{Role: llm.RoleUser, Text: prompt},
		}, deps.MaxDepth, nil)
		if err != nil {
			return models.AgentResult{}, fmt.Errorf("agent: magician step %s: %w", step, err)
		}

		draft, err := parseDraft(result.FinalAnswer, step)
		if err != nil {
			return models.AgentResult{}, err
		}
		if err := validateDraftLinks(draft, known, neighbor); err != nil {
			return models.AgentResult{}, err
		}
		drafts = append(drafts, draft)
	}

	var contentParts []string
	for _, d := range drafts {
		contentParts = append(contentParts, fmt.Sprintf("# %s\n%s", d.Title, d.Body))
	}

	return models.AgentResult{
		Agent:      models.StageMagician,
		Confidence: 0.6,
		ExecMS:     time.Since(start).Milliseconds(),
		Content:    strings.Join(contentParts, "\n\n---\n\n"),
		Metadata: map[string]any{
			"drafts": drafts,
		},
	}, nil
}

func parseDraft(finalAnswer, fallbackSlug string) (DraftNote, error) {
	idx := strings.Index(finalAnswer, "BODY:")
	fields := keyedLines(finalAnswer)
	slug := fields["SLUG"]
	if slug == "" {
		slug = fallbackSlug
	}
	title := fields["TITLE"]

	var body string
	if idx >= 0 {
		body = strings.TrimSpace(finalAnswer[idx+len("BODY:"):])
	} else {
		body = finalAnswer
	}

	return DraftNote{Slug: slug, Title: title, Body: body}, nil
}

// validateDraftLinks enforces §4.7's content requirement: at least one
// link to a previously-known concept and one to the path-neighbor step.
func validateDraftLinks(draft DraftNote, known []string, neighbor string) error {
	links := draftLinkRe.FindAllStringSubmatch(draft.Body, -1)
	targets := make(map[string]struct{}, len(links))
	for _, m := range links {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		targets[strings.ToLower(strings.TrimSpace(target))] = struct{}{}
	}

	hasKnown := false
	for _, k := range known {
		if _, ok := targets[strings.ToLower(k)]; ok {
			hasKnown = true
			break
		}
	}
	hasNeighbor := neighbor == "" // no neighbor for a single-step path
	if neighbor != "" {
		if _, ok := targets[strings.ToLower(neighbor)]; ok {
			hasNeighbor = true
		}
	}

	if !hasKnown || !hasNeighbor {
		return fmt.Errorf("%w: draft %s missing required link(s) (has_known_link=%v neighbor=%q)",
			apperr.ErrContentMissingLinks, draft.Slug, hasKnown, neighbor)
	}
	return nil
}
