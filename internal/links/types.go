// Package links implements the Bidirectional Link Engine (§4.3): in-memory
// forward/backward indexes, tag index, link density, and the path /
// neighborhood queries used to build LLM context.
//
// Grounded on kenaz's internal/index package (same responsibilities —
// upsert, delete, backlinks, search), generalised from a SQLite-backed
// store to the in-memory maps SPEC_FULL.md requires for O(|Δ|) incremental
// updates and deterministic BFS queries.
package links

// LinkTarget pairs a wikilink's slug with its note-facing display text.
type LinkTarget struct {
	Slug    string
	Display string
}

// NoteLinks is the per-note input to Rebuild/Update: everything the Link
// Engine needs to derive edges, tags, and keyword-match signals, without
// depending on how the note was parsed or stored.
type NoteLinks struct {
	Slug       string
	Title      string
	Tags       []string
	Targets    []LinkTarget
	BodyTokens []string
}

// ScoredSlug is one ranked result from KeywordMatch.
type ScoredSlug struct {
	Slug          string
	TagOverlap    int
	TitleOverlap  int
	BodyOverlap   int
}
