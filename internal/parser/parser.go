// Package parser extracts frontmatter, wikilinks, and tags from Markdown
// content, per §4.2 of SPEC_FULL.md.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wayfare/learnctl/internal/slug"
)

var (
	wikilinkRe     = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe          = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
	fencedCodeRe   = regexp.MustCompile("(?s)```.*?(```|\\z)")
	inlineCodeRe   = regexp.MustCompile("`[^`\n]*`")
)

// LinkRef pairs a wikilink's normalised index key with its display text:
// the link target as written, trimmed of surrounding space. An alias after
// a pipe is not kept.
type LinkRef struct {
	Slug    string
	Display string
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	Links       []LinkRef
	Tags        []string
	Title       string
}

// Parse extracts frontmatter, body, wikilinks, and tags from raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	scannable := maskCode(body)
	links := extractLinks(scannable)
	tags := extractTags(scannable, fm)
	title := deriveTitle(fm, body)

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Links:       links,
		Tags:        tags,
		Title:       title,
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	// Find end delimiter.
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter — treat everything as body.
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	// Body starts after closing delimiter line.
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML — return body only, no error (spec: fallback).
		return nil, string(data), nil
	}

	return fm, body, nil
}

// maskCode blanks out fenced/indented code blocks and inline code spans so
// that link and tag extraction never scans inside them. Newlines are kept,
// so the line count and line order are preserved; within masked code each
// character becomes a single space, so byte offsets shift after multi-byte
// characters.
func maskCode(body string) string {
	blanked := fencedCodeRe.ReplaceAllStringFunc(body, blankKeepingNewlines)
	blanked = inlineCodeRe.ReplaceAllStringFunc(blanked, blankKeepingNewlines)

	lines := strings.Split(blanked, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			lines[i] = strings.Repeat(" ", len(line))
		}
	}
	return strings.Join(lines, "\n")
}

func blankKeepingNewlines(match string) string {
	var b strings.Builder
	b.Grow(len(match))
	for _, r := range match {
		if r == '\n' {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// extractLinks returns the ordered, slug-deduplicated wikilink targets found
// as [[target]] or [[target|alias]]. The index key is derived from the
// target (the text before the pipe), not the alias — [[target|alias]] links
// to the note named "target", so the display form kept is the target itself,
// matching the glossary's "original display form is preserved for rendering".
func extractLinks(scannable string) []LinkRef {
	matches := wikilinkRe.FindAllStringSubmatch(scannable, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []LinkRef
	for _, m := range matches {
		raw := m[1]
		target := raw
		if i := strings.Index(raw, "|"); i >= 0 {
			target = raw[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		key := slug.Of(target)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, LinkRef{Slug: key, Display: target})
	}
	return out
}

// extractTags collects #tags from body and from frontmatter "tags" field.
func extractTags(body string, fm map[string]interface{}) []string {
	seen := make(map[string]struct{})
	var out []string

	// Tags from frontmatter.
	if fm != nil {
		if raw, ok := fm["tags"]; ok {
			switch v := raw.(type) {
			case []interface{}:
				for _, item := range v {
					if s, ok := item.(string); ok {
						s = strings.TrimSpace(s)
						if s != "" {
							if _, dup := seen[s]; !dup {
								seen[s] = struct{}{}
								out = append(out, s)
							}
						}
					}
				}
			}
		}
	}

	// Inline #tags from body.
	matches := tagRe.FindAllStringSubmatch(body, -1)
	for _, m := range matches {
		t := m[1]
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}

	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
