package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordangeorgiev/open-deep-research/internal/modeladapter"
	"github.com/jordangeorgiev/open-deep-research/internal/research"
	"github.com/jordangeorgiev/open-deep-research/internal/toolkit"
)

// scriptedBackend returns each entry of toolReplies in turn for
// CompleteWithTools and a single structuredReply for CompleteStructured.
type scriptedBackend struct {
	toolReplies []scriptedReply
	call        int

	structuredReply string
}

type scriptedReply struct {
	text  string
	calls []research.ToolCall
}

func (b *scriptedBackend) Name() string { return "scripted" }
func (b *scriptedBackend) Capabilities() modeladapter.Capabilities {
	return modeladapter.Capabilities{NativeTools: true, NativeStructured: true}
}
func (b *scriptedBackend) Complete(ctx context.Context, system string, messages []modeladapter.Message, params modeladapter.Params) (string, error) {
	return "", nil
}
func (b *scriptedBackend) CompleteWithTools(ctx context.Context, system string, messages []modeladapter.Message, tools []modeladapter.Tool, params modeladapter.Params) (string, []research.ToolCall, error) {
	r := b.toolReplies[b.call]
	b.call++
	return r.text, r.calls, nil
}
func (b *scriptedBackend) CompleteStructured(ctx context.Context, system string, messages []modeladapter.Message, schema json.RawMessage, params modeladapter.Params) (json.RawMessage, error) {
	return json.RawMessage(b.structuredReply), nil
}

func newTestRegistry(searchPayload string) *toolkit.Registry {
	r := toolkit.NewRegistry()
	r.Register(toolkit.SearchTool(), func(ctx context.Context, call research.ToolCall) (research.ToolResult, error) {
		return research.ToolResult{Kind: research.ResultOK, Payload: searchPayload}, nil
	})
	r.Register(toolkit.ReflectTool(), func(ctx context.Context, call research.ToolCall) (research.ToolResult, error) {
		return research.ToolResult{Kind: research.ResultOK, Payload: "noted"}, nil
	})
	r.Register(toolkit.ResearchCompleteTool(), func(ctx context.Context, call research.ToolCall) (research.ToolResult, error) {
		return research.ToolResult{Kind: research.ResultOK, Payload: "ok"}, nil
	})
	return r.Scoped(toolkit.WorkerToolNames...)
}

func TestRunCompletesWhenModelSignalsNoMoreTools(t *testing.T) {
	searchPayload := `[{"url":"https://a.example","title":"A","raw_content":"","summary":"summary a"}]`
	backend := &scriptedBackend{
		toolReplies: []scriptedReply{
			{calls: []research.ToolCall{{Name: toolkit.ToolSearch, Arguments: map[string]any{"queries": []any{"HNSW"}}}}},
			{text: "done researching"},
		},
		structuredReply: `{"claims":[{"text":"HNSW is a graph index","source_indices":[0]}],"sources":[{"url":"https://a.example","title":"A"}]}`,
	}

	researcher := New(modeladapter.New(backend, modeladapter.Options{}), newTestRegistry(searchPayload), nil, DefaultPruneSettings(), nil, nil)

	task := research.WorkerTask{ID: "t1", SubQuestion: "what is HNSW?", MaxIterations: 5, MaxToolCalls: 5}
	findings, err := researcher.Run(context.Background(), task, research.Brief{Question: "explain ANN search"})
	require.NoError(t, err)
	assert.Equal(t, research.WorkerComplete, findings.Status)
	assert.Len(t, findings.Claims, 1)
	assert.Equal(t, "t1", findings.TaskID)
}

func TestRunExhaustsAtIterationCap(t *testing.T) {
	searchPayload := `[]`
	replies := make([]scriptedReply, 3)
	for i := range replies {
		replies[i] = scriptedReply{calls: []research.ToolCall{{Name: toolkit.ToolSearch, Arguments: map[string]any{"queries": []any{"x"}}}}}
	}
	backend := &scriptedBackend{toolReplies: replies, structuredReply: `{"claims":[],"sources":[]}`}

	researcher := New(modeladapter.New(backend, modeladapter.Options{}), newTestRegistry(searchPayload), nil, DefaultPruneSettings(), nil, nil)
	task := research.WorkerTask{ID: "t2", SubQuestion: "q", MaxIterations: 3, MaxToolCalls: 100}
	findings, err := researcher.Run(context.Background(), task, research.Brief{Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, research.WorkerExhausted, findings.Status)
}

func TestRunRespectsToolCallBudget(t *testing.T) {
	searchPayload := `[]`
	replies := []scriptedReply{
		{calls: []research.ToolCall{
			{Name: toolkit.ToolSearch, Arguments: map[string]any{"queries": []any{"x"}}},
			{Name: toolkit.ToolSearch, Arguments: map[string]any{"queries": []any{"y"}}},
		}},
	}
	backend := &scriptedBackend{toolReplies: replies, structuredReply: `{"claims":[],"sources":[]}`}

	researcher := New(modeladapter.New(backend, modeladapter.Options{}), newTestRegistry(searchPayload), nil, DefaultPruneSettings(), nil, nil)
	task := research.WorkerTask{ID: "t3", SubQuestion: "q", MaxIterations: 10, MaxToolCalls: 1}
	findings, err := researcher.Run(context.Background(), task, research.Brief{Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, research.WorkerExhausted, findings.Status)
}
