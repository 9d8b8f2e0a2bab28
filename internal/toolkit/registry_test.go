package toolkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordangeorgiev/open-deep-research/internal/research"
)

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.Register(SearchTool(), func(ctx context.Context, call research.ToolCall) (research.ToolResult, error) {
		return research.ToolResult{Kind: research.ResultOK, Payload: "searched"}, nil
	})
	r.Register(ReflectTool(), func(ctx context.Context, call research.ToolCall) (research.ToolResult, error) {
		return research.ToolResult{Kind: research.ResultOK, Payload: "reflected"}, nil
	})
	r.Register(DelegateResearchTool(), func(ctx context.Context, call research.ToolCall) (research.ToolResult, error) {
		return research.ToolResult{Kind: research.ResultOK, Payload: "delegated"}, nil
	})
	r.Register(ResearchCompleteTool(), func(ctx context.Context, call research.ToolCall) (research.ToolResult, error) {
		return research.ToolResult{Kind: research.ResultOK, Payload: "complete"}, nil
	})
	return r
}

func TestScopedRegistryOnlyExposesNamedTools(t *testing.T) {
	r := newTestRegistry()
	worker := r.Scoped(WorkerToolNames...)

	names := make(map[string]bool)
	for _, tool := range worker.Tools() {
		names[tool.Name] = true
	}

	assert.True(t, names[ToolSearch])
	assert.True(t, names[ToolReflect])
	assert.True(t, names[ToolResearchComplete])
	assert.False(t, names[ToolDelegateResearch])
}

func TestDispatchRoutesToHandler(t *testing.T) {
	r := newTestRegistry()
	result := r.Dispatch(context.Background(), research.ToolCall{ID: "1", Name: ToolSearch})
	assert.Equal(t, research.ResultOK, result.Kind)
	assert.Equal(t, "searched", result.Payload)
	assert.Equal(t, "1", result.CallID)
}

func TestDispatchUnknownToolProducesErrorResult(t *testing.T) {
	r := newTestRegistry()
	result := r.Dispatch(context.Background(), research.ToolCall{ID: "2", Name: "not_a_tool"})
	assert.Equal(t, research.ResultError, result.Kind)
	require.Contains(t, result.Payload, "not found")
}
