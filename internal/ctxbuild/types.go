// Package ctxbuild implements the Context Manager (C5): assembling a
// single deterministic, KV-cache-friendly prompt string from a static
// prefix, a sorted tool catalogue, a tiered note block, short-lived user
// state, and append-only history.
package ctxbuild

// sectionDelimiter separates the five fixed sections of the prompt. It
// never varies, so although Prefix includes it (between the static prompt
// and the tool catalogue), the prefix stays byte-identical across calls.
const sectionDelimiter = "\n=== SECTION BREAK ===\n"

// CatalogueEntry describes one invocable tool (the five agents plus any
// auxiliary tools) for the deterministic tool-catalogue section.
type CatalogueEntry struct {
	Name        string
	Description string
}

// RankedNote is a single Link-Engine query result: a candidate slug and its
// relevance score in [0,1], used to place it into a context tier.
type RankedNote struct {
	Slug      string
	Relevance float64
}

// Tiers holds the thresholds and caps controlling tiered note inclusion
// (§4.5), all sourced from ContextConfig.
type Tiers struct {
	FullThreshold    float64
	SummaryThreshold float64
	TitleThreshold   float64
	MaxFull          int
	MaxSummary       int
	MaxTitle         int
	FullByteCap      int
}

// DefaultTiers matches §4.5 and §6's documented defaults.
func DefaultTiers() Tiers {
	return Tiers{
		FullThreshold:    0.8,
		SummaryThreshold: 0.5,
		TitleThreshold:   0.2,
		MaxFull:          3,
		MaxSummary:       5,
		MaxTitle:         10,
		FullByteCap:      4000,
	}
}

// NoteSource is the read-side dependency ctxbuild needs from the Note Store
// and Link Engine: note bodies/summaries and a note's outgoing edges.
type NoteSource interface {
	ReadSummary(slug string) (title, summary, body string, ok bool)
	Outgoing(slug string) []string
}

// HistoryTurn is one entry of the append-only session history. Observation
// turns (tool results fed back to the model) are the only ones ever
// eligible for compaction; action turns (model output, tool requests) are
// preserved verbatim forever.
type HistoryTurn struct {
	Role          string
	Content       string
	IsObservation bool
	// ExternalRef is set once this turn's content has been compacted away
	// to a file reference; Content then holds the reference text instead
	// of the original payload.
	ExternalRef string
}

// UserState is the short-lived, per-turn dynamic section: the learner's
// query and zone-of-proximal-development summary.
type UserState struct {
	Query string
	ZPD   string
}
