package orchestrator

import (
	"context"
	"time"

	"github.com/wayfare/learnctl/internal/models"
)

// GC removes every terminal session (completed, error, or cancelled) last
// updated more than the configured TTL ago. Running sessions are never
// collected regardless of age.
func (m *Manager) GC(now time.Time) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []string
	for id, e := range m.sessions {
		e.mu.Lock()
		terminal := e.session.Status != models.SessionRunning
		stale := now.Sub(e.session.UpdatedAt) > m.ttl
		e.mu.Unlock()
		if terminal && stale {
			delete(m.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// RunGC periodically calls GC until ctx is cancelled, the pattern used to
// enforce sessions.ttl_min in the background (§4.8, §6).
func (m *Manager) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.GC(time.Now().UTC())
		}
	}
}
