// Package slug implements the canonical identifier normalisation used for
// both note slugs (derived from vault paths) and link-target index keys.
//
// Per the resolved Open Question in SPEC_FULL.md (identity of slugs): index
// keys are lower-cased with runs of whitespace collapsed to a single
// underscore. The original display form (file name, [[link]] text) is never
// mutated — normalisation only ever produces a map key.
package slug

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Of normalises a raw string (a link target or a note title) into an index key.
func Of(raw string) string {
	trimmed := strings.TrimSpace(raw)
	var b strings.Builder
	b.Grow(len(trimmed))
	lastWasSpace := false
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			if !lastWasSpace && b.Len() > 0 {
				b.WriteByte('_')
			}
			lastWasSpace = true
			continue
		}
		lastWasSpace = false
		b.WriteRune(unicode.ToLower(r))
	}
	return strings.TrimRight(b.String(), "_")
}

// FromPath derives a note slug from a vault-relative file path: the
// extension is stripped and the remaining path is normalised with Of,
// preserving directory separators as forward slashes.
func FromPath(relPath string) string {
	clean := filepath.ToSlash(relPath)
	clean = strings.TrimSuffix(clean, filepath.Ext(clean))
	parts := strings.Split(clean, "/")
	for i, p := range parts {
		parts[i] = Of(p)
	}
	return strings.Join(parts, "/")
}
