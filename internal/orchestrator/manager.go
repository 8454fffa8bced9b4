// Package orchestrator implements the Agent Orchestrator (C8 / §4.8): the
// session registry, the five-stage state machine, and the progress
// channel every stage reports through.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/wayfare/learnctl/internal/agent"
	"github.com/wayfare/learnctl/internal/apperr"
	"github.com/wayfare/learnctl/internal/events"
	"github.com/wayfare/learnctl/internal/models"
)

// DefaultTTL is how long a terminal session is kept before GC, per §4.8.
const DefaultTTL = 60 * time.Minute

// entry is the registry's per-session bookkeeping: the session record
// itself, a lock guarding it, and the cancel func for its running stage
// (if any).
type entry struct {
	mu      sync.Mutex
	session *models.LearningSession
	cancel  context.CancelFunc
}

// Persister durably stores a session snapshot, e.g. internal/sessionstore's
// Store. A Manager with no Persister set keeps sessions in memory only.
type Persister interface {
	Save(session *models.LearningSession) error
}

// Manager owns the session registry and the progress channel. It enforces
// stage order, one running stage per session, a bound on concurrently
// orchestrated sessions, and session TTL.
type Manager struct {
	deps      agent.Deps
	broker    *events.Broker
	sem       *semaphore.Weighted
	ttl       time.Duration
	persister Persister

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewManager constructs a Manager. maxConcurrent bounds how many sessions
// may have a stage actively running at once (sessions.max_concurrent);
// ttl is how long a terminal session survives before GC (0 uses
// DefaultTTL).
func NewManager(deps agent.Deps, broker *events.Broker, maxConcurrent int, ttl time.Duration) *Manager {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		deps:     deps,
		broker:   broker,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		ttl:      ttl,
		sessions: make(map[string]*entry),
	}
}

// Start creates a new session, all five stages pending, and registers it.
// It does not itself run any stage.
func (m *Manager) Start(query string) string {
	now := time.Now().UTC()
	id := uuid.NewString()
	session := models.NewLearningSession(id, query, now)

	m.mu.Lock()
	m.sessions[id] = &entry{session: session}
	m.mu.Unlock()

	m.publish(id, models.EventStatus, session.Status)
	return id
}

// Get returns a snapshot copy of the session's current state.
func (m *Manager) Get(sessionID string) (*models.LearningSession, error) {
	e, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := *e.session
	snapshot.Stages = append([]models.StageRecord(nil), e.session.Stages...)
	snapshot.Events = append([]models.SessionEvent(nil), e.session.Events...)
	return &snapshot, nil
}

// Subscribe returns a channel of events for sessionID and an unsubscribe
// func the caller must invoke when done.
func (m *Manager) Subscribe(sessionID string) (<-chan models.SessionEvent, func(), error) {
	if _, err := m.lookup(sessionID); err != nil {
		return nil, nil, err
	}
	ch := m.broker.Subscribe(sessionID)
	return ch, func() { m.broker.Unsubscribe(sessionID, ch) }, nil
}

// Cancel marks sessionID cancelled and abandons its in-flight stage, if
// any. Writes already committed by a completed Empress stage are not
// rolled back.
func (m *Manager) Cancel(sessionID string) error {
	e, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.session.Status = models.SessionCancelled
	e.session.UpdatedAt = time.Now().UTC()
	e.mu.Unlock()

	m.publish(sessionID, models.EventStatus, models.SessionCancelled)
	return nil
}

// SetPersister attaches a Persister. Every subsequent session event saves a
// fresh snapshot so the durable store never lags the in-memory registry by
// more than one published event.
func (m *Manager) SetPersister(p Persister) {
	m.mu.Lock()
	m.persister = p
	m.mu.Unlock()
}

func (m *Manager) lookup(sessionID string) (*entry, error) {
	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrSessionNotFound, sessionID)
	}
	return e, nil
}

func (m *Manager) publish(sessionID string, typ models.SessionEventType, data any) {
	ev := models.SessionEvent{Type: typ, SessionID: sessionID, Data: data, Timestamp: time.Now().UTC()}
	m.mu.Lock()
	if e, ok := m.sessions[sessionID]; ok {
		e.mu.Lock()
		e.session.Events = append(e.session.Events, ev)
		e.mu.Unlock()
	}
	m.mu.Unlock()
	m.broker.Publish(ev)

	m.mu.Lock()
	p := m.persister
	m.mu.Unlock()
	if p != nil {
		if snap, err := m.Get(sessionID); err == nil {
			_ = p.Save(snap)
		}
	}
}
