package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordangeorgiev/open-deep-research/internal/modeladapter"
)

const sampleFixture = `
native_tools: true
native_structured: true
turns:
  - calls:
      - name: search
        arguments:
          queries: ["HNSW"]
  - text: "done"
structured:
  - '{"question":"q"}'
completions:
  - "final markdown"
`

func TestParseFixtureDecodesYAML(t *testing.T) {
	f, err := ParseFixture([]byte(sampleFixture))
	require.NoError(t, err)
	assert.True(t, f.NativeTools)
	require.Len(t, f.Turns, 2)
	assert.Equal(t, "search", f.Turns[0].Calls[0].Name)
}

func TestScriptedBackendPlaysTurnsInOrder(t *testing.T) {
	f, err := ParseFixture([]byte(sampleFixture))
	require.NoError(t, err)
	backend := NewScriptedBackend("fixture", f)

	_, calls, err := backend.CompleteWithTools(context.Background(), "", nil, nil, modeladapter.Params{})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "search", calls[0].Name)

	text, calls, err := backend.CompleteWithTools(context.Background(), "", nil, nil, modeladapter.Params{})
	require.NoError(t, err)
	assert.Empty(t, calls)
	assert.Equal(t, "done", text)
}

func TestScriptedBackendRepeatsFinalTurnOnceExhausted(t *testing.T) {
	f, err := ParseFixture([]byte(sampleFixture))
	require.NoError(t, err)
	backend := NewScriptedBackend("fixture", f)

	for i := 0; i < 2; i++ {
		_, _, err := backend.CompleteWithTools(context.Background(), "", nil, nil, modeladapter.Params{})
		require.NoError(t, err)
	}
	text, calls, err := backend.CompleteWithTools(context.Background(), "", nil, nil, modeladapter.Params{})
	require.NoError(t, err)
	assert.Empty(t, calls)
	assert.Equal(t, "done", text)
}

func TestScriptedBackendServesStructuredAndCompletions(t *testing.T) {
	f, err := ParseFixture([]byte(sampleFixture))
	require.NoError(t, err)
	backend := NewScriptedBackend("fixture", f)

	doc, err := backend.CompleteStructured(context.Background(), "", nil, nil, modeladapter.Params{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"question":"q"}`, string(doc))

	text, err := backend.Complete(context.Background(), "", nil, modeladapter.Params{})
	require.NoError(t, err)
	assert.Equal(t, "final markdown", text)
}
