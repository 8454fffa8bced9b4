package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wayfare/learnctl/internal/ctxbuild"
	"github.com/wayfare/learnctl/internal/llm"
	"github.com/wayfare/learnctl/internal/models"
	"github.com/wayfare/learnctl/internal/toolloop"
)

const justicePrefix = `You are Justice: a comprehension-check agent.
Given the newly generated learning content, write 3 to 5 questions that
target the links the learner must now have formed.
Respond with plain "KEY: value" lines:
QUESTIONS: the questions, separated by " | "`

// JusticeOutput is the structured result of the comprehension-check stage.
type JusticeOutput struct {
	Questions []string
}

func runJustice(ctx context.Context, deps Deps, input StageInput) (models.AgentResult, error) {
	start := time.Now()

	magician, ok := input.Prior[models.StageMagician]
	if !ok {
		return models.AgentResult{}, fmt.Errorf("agent: justice: missing magician result")
	}

	prompt, err := deps.Context.Build(nil, ctxbuild.UserState{
		Query: input.Query,
		ZPD:   magician.Content,
	}, nil)
	if err != nil {
		return models.AgentResult{}, fmt.Errorf("agent: justice build context: %w", err)
	}

	result, err := toolloop.RunLoop(ctx, deps.LLM, deps.Tools, llm.Options{}, []llm.Message{
		{Role: llm.RoleSystem, Text: justicePrefix},
		{Role: llm.RoleUser, Text: prompt},
	}, deps.MaxDepth, nil)
	if err != nil {
		return models.AgentResult{}, fmt.Errorf("agent: justice: %w", err)
	}

	fields := keyedLines(result.FinalAnswer)
	var questions []string
	for _, q := range strings.Split(fields["QUESTIONS"], "|") {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}

	return models.AgentResult{
		Agent:      models.StageJustice,
		Confidence: 0.6,
		ExecMS:     time.Since(start).Milliseconds(),
		Content:    result.FinalAnswer,
		Metadata: map[string]any{
			"questions": questions,
		},
	}, nil
}
