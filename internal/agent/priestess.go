package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/wayfare/learnctl/internal/ctxbuild"
	"github.com/wayfare/learnctl/internal/llm"
	"github.com/wayfare/learnctl/internal/models"
	"github.com/wayfare/learnctl/internal/toolloop"
)

const priestessPrefix = `You are the High Priestess: a knowledge-assessment agent.
Given the learner's query and the surrounding note graph, identify which
concepts the learner already knows and which relevant concepts they do
not yet know. Flag any sign of cognitive overload.
Respond with plain "KEY: value" lines:
KNOWN: comma-separated slugs the learner already knows
UNKNOWN: comma-separated slugs relevant but not yet known
LOAD_FLAGS: comma-separated cognitive-load flags, or "none"
RATIONALE: a short narrative explanation`

// PriestessOutput is the structured result of the knowledge-assessment
// stage.
type PriestessOutput struct {
	Known     []string
	Unknown   []string
	LoadFlags []string
	Rationale string
}

func runPriestess(ctx context.Context, deps Deps, input StageInput) (models.AgentResult, error) {
	start := time.Now()

	tokens := tokenize(input.Query)
	matches := deps.Links.KeywordMatch(tokens, 20)

	var ranked []ctxbuild.RankedNote
	seen := make(map[string]struct{})
	for i, m := range matches {
		rel := 1.0 - float64(i)*0.05
		if rel < 0.2 {
			rel = 0.2
		}
		ranked = append(ranked, ctxbuild.RankedNote{Slug: m.Slug, Relevance: rel})
		seen[m.Slug] = struct{}{}
		for _, group := range deps.Links.Neighbors(m.Slug, 1) {
			for _, nb := range group.Slugs {
				if _, ok := seen[nb]; ok {
					continue
				}
				seen[nb] = struct{}{}
				ranked = append(ranked, ctxbuild.RankedNote{Slug: nb, Relevance: 0.3})
			}
		}
	}

	prompt, err := deps.Context.Build(ranked, ctxbuild.UserState{Query: input.Query}, nil)
	if err != nil {
		return models.AgentResult{}, fmt.Errorf("agent: priestess build context: %w", err)
	}

	result, err := toolloop.RunLoop(ctx, deps.LLM, deps.Tools, llm.Options{}, []llm.Message{
		{Role: llm.RoleSystem, Text: priestessPrefix},
		{Role: llm.RoleUser, Text: prompt},
	}, deps.MaxDepth, nil)
	if err != nil {
		return models.AgentResult{}, fmt.Errorf("agent: priestess: %w", err)
	}

	fields := keyedLines(result.FinalAnswer)
	out := PriestessOutput{
		Known:     splitList(fields["KNOWN"]),
		Unknown:   splitList(fields["UNKNOWN"]),
		LoadFlags: splitList(fields["LOAD_FLAGS"]),
		Rationale: fields["RATIONALE"],
	}

	return models.AgentResult{
		Agent:      models.StagePriestess,
		Confidence: 0.7,
		ExecMS:     time.Since(start).Milliseconds(),
		Content:    result.FinalAnswer,
		Metadata: map[string]any{
			"known":      out.Known,
			"unknown":    out.Unknown,
			"load_flags": out.LoadFlags,
			"rationale":  out.Rationale,
		},
	}, nil
}
