package agent

import (
	"context"
	"fmt"

	"github.com/wayfare/learnctl/internal/models"
)

// Run dispatches a single stage by name. New agents require a new case
// here, not a runtime-registered interface (see the package doc).
func Run(ctx context.Context, kind models.StageName, deps Deps, input StageInput) (models.AgentResult, error) {
	switch kind {
	case models.StagePriestess:
		return runPriestess(ctx, deps, input)
	case models.StageHermit:
		return runHermit(ctx, deps, input)
	case models.StageMagician:
		return runMagician(ctx, deps, input)
	case models.StageJustice:
		return runJustice(ctx, deps, input)
	case models.StageEmpress:
		return runEmpress(ctx, deps, input)
	default:
		return models.AgentResult{}, fmt.Errorf("agent: unknown stage %q", kind)
	}
}
