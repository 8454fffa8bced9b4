package ctxbuild

import (
	"fmt"
	"sort"
	"strings"
)

// Manager assembles prompts for every agent turn. The static prefix and
// tool catalogue are fixed at construction time and never vary within a
// deployed version, satisfying the KV-cache-prefix invariant (§4.5, §8).
type Manager struct {
	staticPrefix string
	catalogue    []CatalogueEntry
	tiers        Tiers
	notes        NoteSource
	externalizer Externalizer
	maxHistory   int
}

// NewManager constructs a Context Manager. catalogue is sorted by name
// once, here, so every later Build call serializes it identically.
func NewManager(staticPrefix string, catalogue []CatalogueEntry, tiers Tiers, notes NoteSource, externalizer Externalizer, maxHistoryTurns int) *Manager {
	sorted := append([]CatalogueEntry(nil), catalogue...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	if maxHistoryTurns <= 0 {
		maxHistoryTurns = 20
	}
	return &Manager{
		staticPrefix: staticPrefix,
		catalogue:    sorted,
		tiers:        tiers,
		notes:        notes,
		externalizer: externalizer,
		maxHistory:   maxHistoryTurns,
	}
}

// Prefix returns the byte-identical static-prefix + tool-catalogue portion
// of the prompt, exposed so callers (and tests) can assert it never
// changes within a session.
func (m *Manager) Prefix() string {
	var b strings.Builder
	b.WriteString(m.staticPrefix)
	b.WriteString(sectionDelimiter)
	b.WriteString(m.renderCatalogue())
	return b.String()
}

func (m *Manager) renderCatalogue() string {
	var b strings.Builder
	b.WriteString("TOOLS:\n")
	for _, e := range m.catalogue {
		fmt.Fprintf(&b, "- %s: %s\n", e.Name, e.Description)
	}
	return b.String()
}

// Build assembles the full prompt: prefix, tiered notes, user state, and
// bounded history, each section separated by sectionDelimiter.
func (m *Manager) Build(ranked []RankedNote, state UserState, history []HistoryTurn) (string, error) {
	noteBlock, err := m.renderNotes(ranked)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(m.Prefix())
	b.WriteString(sectionDelimiter)
	b.WriteString(noteBlock)
	b.WriteString(sectionDelimiter)
	b.WriteString(renderUserState(state))
	b.WriteString(sectionDelimiter)
	b.WriteString(renderHistory(boundHistory(history, m.maxHistory)))
	return b.String(), nil
}

func renderUserState(state UserState) string {
	var b strings.Builder
	b.WriteString("USER STATE:\n")
	fmt.Fprintf(&b, "query: %s\n", state.Query)
	fmt.Fprintf(&b, "zpd: %s\n", state.ZPD)
	return b.String()
}

// boundHistory keeps only the most recent maxTurns entries, preserving
// their relative order — append-only, never rewritten (§4.5, §8).
func boundHistory(history []HistoryTurn, maxTurns int) []HistoryTurn {
	if len(history) <= maxTurns {
		return history
	}
	return history[len(history)-maxTurns:]
}

func renderHistory(history []HistoryTurn) string {
	var b strings.Builder
	b.WriteString("HISTORY:\n")
	for _, turn := range history {
		fmt.Fprintf(&b, "[%s] %s\n", turn.Role, turn.Content)
	}
	return b.String()
}
