package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/wayfare/learnctl/internal/links"
	"github.com/wayfare/learnctl/internal/models"
	"github.com/wayfare/learnctl/internal/parser"
)

// EmpressOutput is the structured result of the memory-consolidation
// stage: which slugs were created, which were modified, and how many new
// bidirectional links the commit induced.
type EmpressOutput struct {
	Created  []string
	Modified []string
	NewLinks int
}

// runEmpress persists Magician's drafts into the vault via the Note Store
// and folds each one into the Link Engine. Per the resolved open question
// in DESIGN.md, each note write is individually atomic but the group is
// not transactional: a failure partway through one draft is recorded and
// the remaining drafts are still attempted.
func runEmpress(_ context.Context, deps Deps, input StageInput) (models.AgentResult, error) {
	start := time.Now()

	magician, ok := input.Prior[models.StageMagician]
	if !ok {
		return models.AgentResult{}, fmt.Errorf("agent: empress: missing magician result")
	}
	drafts, _ := magician.Metadata["drafts"].([]DraftNote)

	var created, modified []string
	newLinks := 0
	var firstErr error

	for _, d := range drafts {
		existed := deps.Vault.Exists(d.Slug)
		before := len(deps.Links.Outgoing(d.Slug))

		fm := map[string]interface{}{"title": d.Title}
		if err := deps.Vault.Write(d.Slug, fm, d.Body); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("agent: empress write %s: %w", d.Slug, err)
			}
			continue
		}

		res, err := parser.Parse([]byte(d.Body))
		if err != nil {
			res = &parser.Result{Body: d.Body}
		}
		targets := make([]links.LinkTarget, len(res.Links))
		for i, l := range res.Links {
			targets[i] = links.LinkTarget{Slug: l.Slug, Display: l.Display}
		}
		deps.Links.Update(links.NoteLinks{
			Slug:       d.Slug,
			Title:      d.Title,
			Tags:       res.Tags,
			Targets:    targets,
			BodyTokens: tokenize(d.Body),
		})

		if existed {
			modified = append(modified, d.Slug)
		} else {
			created = append(created, d.Slug)
		}
		newLinks += len(deps.Links.Outgoing(d.Slug)) - before
	}

	agentResult := models.AgentResult{
		Agent:      models.StageEmpress,
		Confidence: 0.8,
		ExecMS:     time.Since(start).Milliseconds(),
		Content:    fmt.Sprintf("created=%v modified=%v new_links=%d", created, modified, newLinks),
		Metadata: map[string]any{
			"created":   created,
			"modified":  modified,
			"new_links": newLinks,
		},
	}

	if firstErr != nil {
		return agentResult, firstErr
	}
	return agentResult, nil
}
