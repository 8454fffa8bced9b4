package vault

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// knownKeyOrder is the fixed, stable serialization order for recognised
// front-matter keys (§6). Any additional keys present are preserved
// verbatim and appended afterwards in sorted order, so that serialization
// is a pure, deterministic function of the map contents.
var knownKeyOrder = []string{
	"title", "tags", "created", "modified", "complexity", "mastery_level", "summary",
}

// serializeFrontMatter renders fm as a YAML block with stable key order.
// A nil or empty map yields an empty string (no front-matter fences).
func serializeFrontMatter(fm map[string]interface{}) (string, error) {
	if len(fm) == 0 {
		return "", nil
	}

	known := make(map[string]struct{}, len(knownKeyOrder))
	for _, k := range knownKeyOrder {
		known[k] = struct{}{}
	}
	var extra []string
	for k := range fm {
		if _, ok := known[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)

	var b strings.Builder
	b.WriteString("---\n")
	write := func(key string) error {
		v, ok := fm[key]
		if !ok {
			return nil
		}
		line, err := yaml.Marshal(map[string]interface{}{key: v})
		if err != nil {
			return err
		}
		b.Write(line)
		return nil
	}
	for _, k := range knownKeyOrder {
		if err := write(k); err != nil {
			return "", err
		}
	}
	for _, k := range extra {
		if err := write(k); err != nil {
			return "", err
		}
	}
	b.WriteString("---\n")
	return b.String(), nil
}
