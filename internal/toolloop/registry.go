package toolloop

import (
	"context"
	"fmt"

	"github.com/wayfare/learnctl/internal/apperr"
	"github.com/wayfare/learnctl/internal/models"
)

// Tool is a single dispatchable capability the model can invoke mid-turn.
type Tool interface {
	Execute(ctx context.Context, frame models.ToolCallFrame) (string, error)
}

// ToolFunc adapts a plain function to the Tool interface.
type ToolFunc func(ctx context.Context, frame models.ToolCallFrame) (string, error)

// Execute calls f.
func (f ToolFunc) Execute(ctx context.Context, frame models.ToolCallFrame) (string, error) {
	return f(ctx, frame)
}

// Registry dispatches a parsed frame to the tool named by frame.Target.
// Lookup is by name alone: agentType (frame.Kind) is carried through as a
// descriptive label but is not part of the dispatch key, since tool names
// are unique across the catalogue (§4.5's deterministic tool-catalogue
// serialization assumes the same).
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds or replaces the tool bound to name.
func (r *Registry) Register(name string, tool Tool) {
	r.tools[name] = tool
}

// Names returns every registered tool name, in no particular order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	return names
}

// Dispatch executes the tool named by frame.Target. An unknown tool name
// is a tool execution error, not a parse error — the block itself was
// well-formed.
func (r *Registry) Dispatch(ctx context.Context, frame models.ToolCallFrame) (string, error) {
	tool, ok := r.tools[frame.Target]
	if !ok {
		return "", fmt.Errorf("%w: unknown tool %q", apperr.ErrToolExecution, frame.Target)
	}
	result, err := tool.Execute(ctx, frame)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", apperr.ErrToolExecution, frame.Target, err)
	}
	return result, nil
}
