package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/wayfare/learnctl/internal/apperr"
	"github.com/wayfare/learnctl/internal/ctxbuild"
	"github.com/wayfare/learnctl/internal/llm"
	"github.com/wayfare/learnctl/internal/models"
	"github.com/wayfare/learnctl/internal/toolloop"
)

const hermitPrefix = `You are the Hermit: a learning-path planning agent.
Given the concepts the learner already knows and the concepts they need
to learn, propose an ordered sequence of concepts that takes the learner
from what they know to what they need, through their zone of proximal
development.
Respond with plain "KEY: value" lines:
PATH: comma-separated ordered slugs
RATIONALE: a short narrative explanation`

// DefaultMaxPathLength bounds Hermit's proposed learning path (§4.7
// "rejects paths exceeding max_path_length").
const DefaultMaxPathLength = 12

// HermitOutput is the structured result of the path-planning stage.
type HermitOutput struct {
	Path      []string
	Rationale string
}

func runHermit(ctx context.Context, deps Deps, input StageInput) (models.AgentResult, error) {
	start := time.Now()

	priestess, ok := input.Prior[models.StagePriestess]
	if !ok {
		return models.AgentResult{}, fmt.Errorf("agent: hermit: missing priestess result")
	}
	known := metaStrings(priestess, "known")
	unknown := metaStrings(priestess, "unknown")

	seedSet := append(append([]string(nil), known...), unknown...)
	backbone := deps.Links.MultiShortestPaths(seedSet, 6)

	var ranked []ctxbuild.RankedNote
	for _, s := range backbone {
		ranked = append(ranked, ctxbuild.RankedNote{Slug: s, Relevance: 0.6})
	}

	prompt, err := deps.Context.Build(ranked, ctxbuild.UserState{Query: input.Query,
		ZPD: fmt.Sprintf("known=%v unknown=%v", known, unknown)}, nil)
	if err != nil {
		return models.AgentResult{}, fmt.Errorf("agent: hermit build context: %w", err)
	}

	result, err := toolloop.RunLoop(ctx, deps.LLM, deps.Tools, llm.Options{}, []llm.Message{
		{Role: llm.RoleSystem, Text: hermitPrefix},
		{Role: llm.RoleUser, Text: prompt},
	}, deps.MaxDepth, nil)
	if err != nil {
		return models.AgentResult{}, fmt.Errorf("agent: hermit: %w", err)
	}

	fields := keyedLines(result.FinalAnswer)
	out := HermitOutput{
		Path:      splitList(fields["PATH"]),
		Rationale: fields["RATIONALE"],
	}

	maxLen := deps.MaxPathLen
	if maxLen <= 0 {
		maxLen = DefaultMaxPathLength
	}
	if len(out.Path) > maxLen {
		return models.AgentResult{}, fmt.Errorf("%w: got %d slugs, max %d", apperr.ErrPathTooLong, len(out.Path), maxLen)
	}

	return models.AgentResult{
		Agent:      models.StageHermit,
		Confidence: 0.65,
		ExecMS:     time.Since(start).Milliseconds(),
		Content:    result.FinalAnswer,
		Metadata: map[string]any{
			"path":      out.Path,
			"rationale": out.Rationale,
			"known":     known,
		},
	}, nil
}
