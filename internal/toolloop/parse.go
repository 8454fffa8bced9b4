// Package toolloop implements the Tool-Call Loop (C6): a bounded iteration
// of LLM calls interleaved with structured tool invocations parsed from the
// model's own output.
package toolloop

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wayfare/learnctl/internal/apperr"
	"github.com/wayfare/learnctl/internal/models"
)

const (
	blockOpen  = "<<<[TOOL_REQUEST]>>>"
	blockClose = "<<<[END_TOOL_REQUEST]>>>"
)

var (
	blockRe = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(blockOpen) + `(.*?)` + regexp.QuoteMeta(blockClose))
	fieldRe = regexp.MustCompile(`(?s)([A-Za-z_][A-Za-z0-9_]*)\s*:\s*「始」(.*?)「末」`)
)

// requiredFields are the keys §4.6 mandates on every tool-request block.
var requiredFields = []string{"agentType", "agent_name", "query"}

// ParseFrames scans content for zero or more TOOL_REQUEST blocks, in
// document order. A block missing a required field or with no parseable
// fields at all still yields a frame, with Err set to a wrapped
// apperr.ErrToolParse — malformed blocks are never silently dropped (§4.6,
// §7).
func ParseFrames(content string) []models.ToolCallFrame {
	matches := blockRe.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	frames := make([]models.ToolCallFrame, 0, len(matches))
	for _, m := range matches {
		frames = append(frames, parseOneBlock(m[0], m[1]))
	}
	return frames
}

func parseOneBlock(rawText, body string) models.ToolCallFrame {
	fields := make(map[string]string)
	for _, fm := range fieldRe.FindAllStringSubmatch(body, -1) {
		key := fm[1]
		fields[key] = strings.TrimSpace(fm[2])
	}

	frame := models.ToolCallFrame{RawText: rawText}

	var missing []string
	for _, req := range requiredFields {
		if _, ok := fields[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		frame.Err = fmt.Errorf("%w: missing field(s) %s in block %q",
			apperr.ErrToolParse, strings.Join(missing, ", "), rawText).Error()
		return frame
	}

	frame.Kind = fields["agentType"]
	frame.Target = fields["agent_name"]
	args := make(map[string]string, len(fields))
	for k, v := range fields {
		if k == "agentType" || k == "agent_name" {
			continue
		}
		args[k] = v
	}
	frame.Arguments = args
	return frame
}
