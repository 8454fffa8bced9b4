package ctxbuild

import (
	"fmt"
	"sort"
	"strings"
)

// classify splits ranked notes into the three inclusion tiers of §4.5,
// truncating each to its configured max size. A note qualifies for the
// highest tier whose threshold it clears; it never appears in more than
// one tier. Notes below the title threshold are omitted entirely.
func (m *Manager) classify(ranked []RankedNote) (full, summary, title []string) {
	for _, r := range ranked {
		switch {
		case r.Relevance >= m.tiers.FullThreshold:
			full = append(full, r.Slug)
		case r.Relevance >= m.tiers.SummaryThreshold:
			summary = append(summary, r.Slug)
		case r.Relevance >= m.tiers.TitleThreshold:
			title = append(title, r.Slug)
		}
	}
	sort.Strings(full)
	sort.Strings(summary)
	sort.Strings(title)
	if len(full) > m.tiers.MaxFull {
		full = full[:m.tiers.MaxFull]
	}
	if len(summary) > m.tiers.MaxSummary {
		summary = summary[:m.tiers.MaxSummary]
	}
	if len(title) > m.tiers.MaxTitle {
		title = title[:m.tiers.MaxTitle]
	}
	return full, summary, title
}

// renderNotes produces the tiered note block in stable slug order within
// each tier and stable field order within each entry, so the block is a
// pure function of the ranking (§4.5).
func (m *Manager) renderNotes(ranked []RankedNote) (string, error) {
	full, summary, title := m.classify(ranked)

	var b strings.Builder
	b.WriteString("NOTES:\n")

	for _, slug := range full {
		entry, err := m.renderFull(slug)
		if err != nil {
			return "", err
		}
		b.WriteString(entry)
	}
	for _, slug := range summary {
		b.WriteString(m.renderSummary(slug))
	}
	for _, slug := range title {
		b.WriteString(m.renderTitle(slug))
	}
	return b.String(), nil
}

func (m *Manager) renderFull(slug string) (string, error) {
	noteTitle, noteSummary, body, ok := m.notes.ReadSummary(slug)
	if !ok {
		return fmt.Sprintf("- [full] %s: (unavailable)\n", slug), nil
	}

	if len(body) <= m.tiers.FullByteCap || m.externalizer == nil {
		return fmt.Sprintf("- [full] %s\n  title: %s\n  body: %s\n", slug, noteTitle, body), nil
	}

	ref, err := m.externalizer.Externalize(slug, body)
	if err != nil {
		return "", fmt.Errorf("ctxbuild: externalize %s: %w", slug, err)
	}
	return fmt.Sprintf("- [full-externalized] %s\n  title: %s\n  summary: %s\n  ref: %s\n",
		slug, noteTitle, noteSummary, ref), nil
}

func (m *Manager) renderSummary(slug string) string {
	noteTitle, noteSummary, _, ok := m.notes.ReadSummary(slug)
	if !ok {
		return fmt.Sprintf("- [summary] %s: (unavailable)\n", slug)
	}
	outgoing := m.notes.Outgoing(slug)
	sort.Strings(outgoing)
	return fmt.Sprintf("- [summary] %s\n  title: %s\n  summary: %s\n  outgoing: %s\n",
		slug, noteTitle, noteSummary, strings.Join(outgoing, ", "))
}

func (m *Manager) renderTitle(slug string) string {
	noteTitle, _, _, ok := m.notes.ReadSummary(slug)
	if !ok {
		return fmt.Sprintf("- [title] %s: (unavailable)\n", slug)
	}
	outgoing := m.notes.Outgoing(slug)
	sort.Strings(outgoing)
	if len(outgoing) > 3 {
		outgoing = outgoing[:3]
	}
	return fmt.Sprintf("- [title] %s\n  title: %s\n  outgoing: %s\n",
		slug, noteTitle, strings.Join(outgoing, ", "))
}
