package models

import "time"

// StageStatus is the lifecycle status of a single pipeline stage.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageCompleted StageStatus = "completed"
	StageError     StageStatus = "error"
)

// SessionStatus is the overall lifecycle status of a LearningSession.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionError     SessionStatus = "error"
	SessionCancelled SessionStatus = "cancelled"
)

// StageName identifies one of the five fixed pipeline stages.
type StageName string

const (
	StagePriestess StageName = "priestess"
	StageHermit    StageName = "hermit"
	StageMagician  StageName = "magician"
	StageJustice   StageName = "justice"
	StageEmpress   StageName = "empress"
)

// StageOrder is the strict, fixed sequence stages advance through.
var StageOrder = []StageName{StagePriestess, StageHermit, StageMagician, StageJustice, StageEmpress}

// StageRecord is the per-stage bookkeeping entry held on a session.
type StageRecord struct {
	Name      StageName   `json:"name"`
	Status    StageStatus `json:"status"`
	Progress  float64     `json:"progress"`
	StartedAt *time.Time  `json:"started_at,omitempty"`
	EndedAt   *time.Time  `json:"ended_at,omitempty"`
	Result    *AgentResult `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// AgentResult is the output produced once per agent per session.
type AgentResult struct {
	Agent       StageName      `json:"agent"`
	Confidence  float64        `json:"confidence"`
	ExecMS      int64          `json:"execution_time_ms"`
	Content     string         `json:"content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// SessionEventType enumerates the push-channel event kinds from §6/§4.8.
type SessionEventType string

const (
	EventProgress        SessionEventType = "progress"
	EventStatus          SessionEventType = "status"
	EventResult          SessionEventType = "result"
	EventError           SessionEventType = "error"
	EventStageStarted    SessionEventType = "stage-started"
	EventStageCompleted  SessionEventType = "stage-completed"
	EventSessionComplete SessionEventType = "session-completed"
)

// SessionEvent is a single entry in a session's ordered event log, and the
// payload shape pushed over the progress channel / SSE transport.
type SessionEvent struct {
	Type      SessionEventType `json:"type"`
	SessionID string           `json:"session_id"`
	Data      any              `json:"data,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// LearningSession is one end-to-end execution of the five-stage pipeline.
type LearningSession struct {
	ID         string            `json:"id"`
	Query      string            `json:"query"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	StageIndex int               `json:"stage_index"`
	Progress   float64           `json:"progress"`
	Status     SessionStatus     `json:"status"`
	Stages     []StageRecord     `json:"stages"`
	Events     []SessionEvent    `json:"events"`
	Error      string            `json:"error,omitempty"`
}

// NewLearningSession creates a session with all five stages pending, in the
// fixed order Priestess -> Hermit -> Magician -> Justice -> Empress.
func NewLearningSession(id, query string, now time.Time) *LearningSession {
	stages := make([]StageRecord, len(StageOrder))
	for i, name := range StageOrder {
		stages[i] = StageRecord{Name: name, Status: StagePending}
	}
	return &LearningSession{
		ID:         id,
		Query:      query,
		CreatedAt:  now,
		UpdatedAt:  now,
		StageIndex: 0,
		Status:     SessionRunning,
		Stages:     stages,
	}
}

// CurrentStage returns the stage the session is positioned at.
func (s *LearningSession) CurrentStage() *StageRecord {
	if s.StageIndex < 0 || s.StageIndex >= len(s.Stages) {
		return nil
	}
	return &s.Stages[s.StageIndex]
}

// ToolCallFrame is the ephemeral record of a single tool invocation parsed
// from the model's output inside one tool-call loop iteration.
type ToolCallFrame struct {
	Kind      string         `json:"kind"`
	Target    string         `json:"target"`
	Arguments map[string]string `json:"arguments,omitempty"`
	RawText   string         `json:"raw_text"`
	Result    string         `json:"result,omitempty"`
	Err       string         `json:"error,omitempty"`
}
