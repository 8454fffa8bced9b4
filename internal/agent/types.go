// Package agent implements the five Agents (C7) as a tagged-variant
// dispatch over models.StageName, per the design note in §9: new agents
// require a new case in Run, not a runtime-registered interface.
package agent

import (
	"regexp"
	"strings"

	"github.com/wayfare/learnctl/internal/ctxbuild"
	"github.com/wayfare/learnctl/internal/links"
	"github.com/wayfare/learnctl/internal/llm"
	"github.com/wayfare/learnctl/internal/models"
	"github.com/wayfare/learnctl/internal/toolloop"
	"github.com/wayfare/learnctl/internal/vault"
)

// Deps bundles everything an agent run needs from the rest of the engine.
type Deps struct {
	LLM        llm.Client
	Context    *ctxbuild.Manager
	Links      *links.Engine
	Vault      *vault.Store
	Tools      toolloop.Dispatcher
	MaxDepth   int
	MaxPathLen int
}

// StageInput is what the Orchestrator hands to a single stage run. Prior
// carries every completed stage's result so later stages (Hermit onward)
// can read their predecessor's structured output without the Orchestrator
// needing to know each agent's payload shape.
type StageInput struct {
	Query string
	Prior map[models.StageName]models.AgentResult
}

var wordRe = regexp.MustCompile(`[A-Za-z0-9_]+`)

// tokenize lower-cases and splits s into word tokens, the same normalised
// form the Link Engine's KeywordMatch expects.
func tokenize(s string) []string {
	matches := wordRe.FindAllString(strings.ToLower(s), -1)
	return matches
}

// keyedLines parses a block of "KEY: value" lines (one per line, case
// sensitive key) into a map, the simple structured-output convention every
// agent's final answer is parsed with.
func keyedLines(text string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if key == "" {
			continue
		}
		out[key] = val
	}
	return out
}

// metaStrings extracts a []string value previously stored in an
// AgentResult's Metadata map by an earlier stage.
func metaStrings(result models.AgentResult, key string) []string {
	raw, ok := result.Metadata[key]
	if !ok {
		return nil
	}
	if v, ok := raw.([]string); ok {
		return v
	}
	return nil
}

// metaString extracts a string value from an AgentResult's Metadata map.
func metaString(result models.AgentResult, key string) string {
	raw, ok := result.Metadata[key]
	if !ok {
		return ""
	}
	if v, ok := raw.(string); ok {
		return v
	}
	return ""
}

// splitList splits a comma-separated value into trimmed, non-empty items.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
