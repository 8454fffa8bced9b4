// Package http implements the optional reference HTTP host for the
// Orchestrator (§4.8/§6's "external contract consumed by the
// Orchestrator's hosts, transport-agnostic").
//
// Grounded on kenaz's chi router wiring in internal/entry.go: the same
// middleware stack (RequestID, RealIP, Logger, Recoverer) and the same
// health-check-then-mount-API shape.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wayfare/learnctl/internal/models"
	"github.com/wayfare/learnctl/internal/orchestrator"
)

// NewRouter builds the reference HTTP host: POST /orchestrate, GET
// /sessions/{id}, GET /sessions/{id}/events (SSE).
func NewRouter(orch *orchestrator.Manager) chi.Router {
	h := &handler{orch: orch}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", h.healthy)
	r.Get("/health/ready", h.healthy)

	r.Post("/orchestrate", h.orchestrate)
	r.Get("/sessions/{id}", h.getSession)
	r.Get("/sessions/{id}/events", h.events)

	return r
}

type handler struct {
	orch *orchestrator.Manager
}

func (h *handler) healthy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type orchestrateRequest struct {
	Query string `json:"query"`
}

func (h *handler) orchestrate(w http.ResponseWriter, r *http.Request) {
	var req orchestrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}
	id := h.orch.Orchestrate(r.Context(), req.Query)
	writeJSON(w, http.StatusAccepted, map[string]string{"session_id": id})
}

func (h *handler) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, err := h.orch.Get(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *handler) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ch, unsubscribe, err := h.orch.Subscribe(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	defer unsubscribe()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev models.SessionEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	w.Write([]byte("event: " + string(ev.Type) + "\ndata: "))
	w.Write(payload)
	w.Write([]byte("\n\n"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
