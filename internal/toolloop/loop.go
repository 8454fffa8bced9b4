package toolloop

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wayfare/learnctl/internal/llm"
	"github.com/wayfare/learnctl/internal/models"
)

// DefaultMaxDepth is tool_loop.max_depth's documented default (§6).
const DefaultMaxDepth = 5

const forcedFinalAnswerPrompt = "You have reached the tool-call depth limit. " +
	"Do not request any further tools. Produce your final answer now, based on everything observed so far."

// Dispatcher is the subset of Registry the loop depends on, so tests can
// substitute a stub.
type Dispatcher interface {
	Dispatch(ctx context.Context, frame models.ToolCallFrame) (string, error)
}

// Result is the outcome of a single RunLoop invocation.
type Result struct {
	FinalAnswer string
	Transcript  []llm.Message
	Frames      []models.ToolCallFrame
	Depth       int
}

// RunLoop drives the bounded tool-call recursion of §4.6: call the model,
// scan the response for TOOL_REQUEST blocks, dispatch each in document
// order, append an observation message, and repeat until the model emits
// no further requests or the depth ceiling is reached. The recursion is
// written as iteration so stack usage is independent of depth, per the
// design note in §9.
func RunLoop(ctx context.Context, client llm.Client, dispatcher Dispatcher, opts llm.Options, history []llm.Message, maxDepth int, logger *slog.Logger) (Result, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = slog.Default()
	}

	msgs := append([]llm.Message(nil), history...)
	var allFrames []models.ToolCallFrame
	depth := 0

	for {
		resp, err := client.Complete(ctx, llm.Request{Messages: msgs, Options: opts})
		if err != nil {
			return Result{}, fmt.Errorf("toolloop: llm call at depth %d: %w", depth, err)
		}
		msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Text: resp.Content})

		frames := ParseFrames(resp.Content)
		if len(frames) == 0 {
			return Result{FinalAnswer: resp.Content, Transcript: msgs, Frames: allFrames, Depth: depth}, nil
		}

		for i := range frames {
			dispatchFrame(ctx, dispatcher, &frames[i])
		}
		allFrames = append(allFrames, frames...)
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Text: composeObservation(frames)})

		depth++
		if depth >= maxDepth {
			logger.Warn("tool loop depth ceiling reached, forcing final answer",
				slog.Int("depth", depth), slog.Int("max_depth", maxDepth))
			msgs = append(msgs, llm.Message{Role: llm.RoleUser, Text: forcedFinalAnswerPrompt})
			resp, err := client.Complete(ctx, llm.Request{Messages: msgs, Options: opts})
			if err != nil {
				return Result{}, fmt.Errorf("toolloop: forced final-answer call: %w", err)
			}
			msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Text: resp.Content})
			return Result{FinalAnswer: resp.Content, Transcript: msgs, Frames: allFrames, Depth: depth}, nil
		}
	}
}

// dispatchFrame executes frame in place, setting Result or Err. Frames that
// already carry a parse error (malformed blocks) are left untouched — they
// are reported to the model as-is, never dispatched.
func dispatchFrame(ctx context.Context, dispatcher Dispatcher, frame *models.ToolCallFrame) {
	if frame.Err != "" {
		return
	}
	result, err := dispatcher.Dispatch(ctx, *frame)
	if err != nil {
		frame.Err = err.Error()
		return
	}
	frame.Result = result
}

// composeObservation renders every frame's outcome as a single user
// message, in document order, full error text included verbatim for
// failures per §7.
func composeObservation(frames []models.ToolCallFrame) string {
	var b strings.Builder
	for i, f := range frames {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[tool_result %d: %s/%s]\n", i+1, f.Kind, f.Target)
		if f.Err != "" {
			b.WriteString("error: ")
			b.WriteString(f.Err)
		} else {
			b.WriteString(f.Result)
		}
	}
	return b.String()
}
