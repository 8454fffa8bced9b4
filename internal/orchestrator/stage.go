package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/wayfare/learnctl/internal/agent"
	"github.com/wayfare/learnctl/internal/apperr"
	"github.com/wayfare/learnctl/internal/models"
)

// ExecuteAgent advances sessionID through a single named stage. The stage
// must be the session's current stage (strict order, §4.8); only one
// stage may run at a time per session.
func (m *Manager) ExecuteAgent(ctx context.Context, sessionID string, name models.StageName, query string) (models.AgentResult, error) {
	e, err := m.lookup(sessionID)
	if err != nil {
		return models.AgentResult{}, err
	}

	e.mu.Lock()
	if e.session.Status == models.SessionCancelled {
		e.mu.Unlock()
		return models.AgentResult{}, apperr.ErrSessionCancelled
	}
	current := e.session.CurrentStage()
	if current == nil || current.Name != name {
		e.mu.Unlock()
		return models.AgentResult{}, fmt.Errorf("%w: session %s expects %v, got %v",
			apperr.ErrStageOrder, sessionID, stageNameOrNone(current), name)
	}
	if current.Status == models.StageRunning {
		e.mu.Unlock()
		return models.AgentResult{}, fmt.Errorf("%w: stage %s already running on session %s",
			apperr.ErrSessionBusy, name, sessionID)
	}

	if !m.sem.TryAcquire(1) {
		e.mu.Unlock()
		return models.AgentResult{}, fmt.Errorf("%w: max_concurrent saturated", apperr.ErrSessionBusy)
	}
	defer m.sem.Release(1)

	stageCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	defer cancel()

	now := time.Now().UTC()
	current.Status = models.StageRunning
	current.StartedAt = &now
	prior := collectPrior(e.session)
	e.mu.Unlock()

	m.publish(sessionID, models.EventStageStarted, map[string]any{"stage": name})

	result, runErr := agent.Run(stageCtx, name, m.deps, agent.StageInput{Query: query, Prior: prior})

	e.mu.Lock()
	endedAt := time.Now().UTC()
	current = e.session.CurrentStage()
	current.EndedAt = &endedAt
	current.Progress = 1
	e.session.UpdatedAt = endedAt

	if runErr != nil {
		current.Status = models.StageError
		current.Error = runErr.Error()
		e.session.Status = models.SessionError
		e.session.Error = runErr.Error()
		e.mu.Unlock()
		m.publish(sessionID, models.EventError, map[string]any{"stage": name, "error": runErr.Error()})
		return models.AgentResult{}, runErr
	}

	current.Status = models.StageCompleted
	current.Result = &result
	e.session.StageIndex++
	e.session.Progress = float64(e.session.StageIndex) / float64(len(models.StageOrder))
	if e.session.StageIndex >= len(models.StageOrder) {
		e.session.Status = models.SessionCompleted
	}
	completed := e.session.Status == models.SessionCompleted
	e.mu.Unlock()

	m.publish(sessionID, models.EventStageCompleted, map[string]any{"stage": name, "result": result})
	if completed {
		m.publish(sessionID, models.EventSessionComplete, nil)
	}

	return result, nil
}

// Orchestrate starts a new session and runs all five stages to
// completion asynchronously, returning the session id immediately.
func (m *Manager) Orchestrate(ctx context.Context, query string) string {
	id := m.Start(query)
	go func() {
		for _, name := range models.StageOrder {
			if _, err := m.ExecuteAgent(ctx, id, name, query); err != nil {
				return
			}
		}
	}()
	return id
}

func collectPrior(session *models.LearningSession) map[models.StageName]models.AgentResult {
	prior := make(map[models.StageName]models.AgentResult)
	for _, stage := range session.Stages {
		if stage.Status == models.StageCompleted && stage.Result != nil {
			prior[stage.Name] = *stage.Result
		}
	}
	return prior
}

func stageNameOrNone(s *models.StageRecord) models.StageName {
	if s == nil {
		return models.StageName("none")
	}
	return s.Name
}
