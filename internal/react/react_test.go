package react

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		args map[string]any
	}{
		{"search", map[string]any{"queries": []any{"HNSW", "ANN search"}, "max_results_per_query": float64(5)}},
		{"reflect", map[string]any{"reflection": "the question needs two sub-queries"}},
		{"research_complete", map[string]any{}},
	}

	codec := NewCodec()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := Encode(tc.name, tc.args)
			require.NoError(t, err)

			decoded, err := codec.Decode(encoded)
			require.NoError(t, err)
			require.NotNil(t, decoded.Call)
			assert.Equal(t, tc.name, decoded.Call.Name)
			assert.Equal(t, tc.args, decoded.Call.Arguments)
		})
	}
}

func TestDecodeFinalAnswer(t *testing.T) {
	codec := NewCodec()
	decoded, err := codec.Decode("Thought: done\nFinal Answer: HNSW is a graph-based ANN index.")
	require.NoError(t, err)
	assert.True(t, decoded.IsFinal)
	assert.Equal(t, "HNSW is a graph-based ANN index.", decoded.FinalAnswer)
}

func TestDecodeMalformedReplyIsToolParseError(t *testing.T) {
	codec := NewCodec()
	_, err := codec.Decode("I think the answer is 42.")
	require.Error(t, err)
}

func TestDecodeUnbalancedJSONIsToolParseError(t *testing.T) {
	codec := NewCodec()
	_, err := codec.Decode("Thought: x\nAction: search\nAction Input: {\"queries\": [\"a\"]")
	require.Error(t, err)
}

func TestPreambleListsEveryTool(t *testing.T) {
	codec := NewCodec()
	preamble := codec.Preamble([]ToolSpec{
		{Name: "search", Description: "search the web", Schema: `{"type":"object"}`},
		{Name: "reflect", Description: "record a thought", Schema: `{"type":"object"}`},
	})
	assert.Contains(t, preamble, "search")
	assert.Contains(t, preamble, "reflect")
	assert.Contains(t, preamble, "Final Answer:")
}
