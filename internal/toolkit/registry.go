// Package toolkit declares the fixed tool set available to the supervisor
// and worker loops (search, reflect, delegate_research, research_complete)
// and the scoped registry used to restrict each loop to its own subset.
package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jordangeorgiev/open-deep-research/internal/modeladapter"
	"github.com/jordangeorgiev/open-deep-research/internal/research"
)

// Handler executes one tool call and returns its observation payload.
type Handler func(ctx context.Context, call research.ToolCall) (research.ToolResult, error)

type entry struct {
	tool    modeladapter.Tool
	handler Handler
}

// Registry maps tool names to their declaration and execution handler. A
// Registry is safe for concurrent Dispatch calls; Register is expected to
// happen once at startup, before any Dispatch.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds or replaces a tool declaration and its handler.
func (r *Registry) Register(tool modeladapter.Tool, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[tool.Name] = entry{tool: tool, handler: handler}
}

// Tools returns every registered tool declaration, for passing to
// Adapter.CompleteWithTools.
func (r *Registry) Tools() []modeladapter.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]modeladapter.Tool, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.tool)
	}
	return out
}

// Scoped returns a new Registry containing only the named tools, sharing
// their declarations and handlers. Used to restrict the worker loop to
// {search, reflect, research_complete} and the supervisor loop to
// {reflect, delegate_research, research_complete}.
func (r *Registry) Scoped(names ...string) *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scoped := NewRegistry()
	for _, name := range names {
		if e, ok := r.entries[name]; ok {
			scoped.entries[name] = e
		}
	}
	return scoped
}

// Dispatch invokes the handler registered for call.Name. An unknown tool
// name produces a ResultError observation rather than an error return: the
// calling loop always appends a ToolResult to its conversation, never
// crashes on a bad tool name.
func (r *Registry) Dispatch(ctx context.Context, call research.ToolCall) research.ToolResult {
	r.mu.RLock()
	e, ok := r.entries[call.Name]
	r.mu.RUnlock()

	if !ok {
		return research.ToolResult{
			CallID: call.ID,
			Kind:   research.ResultError,
			Payload: fmt.Sprintf("tool not found: %s", call.Name),
		}
	}

	result, err := e.handler(ctx, call)
	if err != nil {
		return research.ToolResult{CallID: call.ID, Kind: research.ResultError, Payload: err.Error()}
	}
	result.CallID = call.ID
	return result
}

func mustSchema(v map[string]any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("toolkit: invalid literal schema: %v", err))
	}
	return b
}
