package modeladapter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordangeorgiev/open-deep-research/internal/research"
)

func searchTool() Tool {
	return Tool{
		Name:   "search",
		Schema: json.RawMessage(`{"required":["queries"]}`),
		Aliases: []AliasRule{
			{Alias: "query", Canonical: "queries", WrapList: true},
		},
	}
}

func TestNormalizeArgumentsAppliesAlias(t *testing.T) {
	tool := searchTool()
	out := normalizeArguments(tool, map[string]any{"query": "HNSW"})
	assert.Equal(t, []any{"HNSW"}, out["queries"])
	_, hasAlias := out["query"]
	assert.False(t, hasAlias)
}

func TestNormalizeArgumentsIsIdempotent(t *testing.T) {
	tool := searchTool()
	once := normalizeArguments(tool, map[string]any{"query": "HNSW"})
	twice := normalizeArguments(tool, once)
	assert.Equal(t, once, twice)
}

func TestNormalizeArgumentsDoesNotWrapExistingList(t *testing.T) {
	tool := searchTool()
	out := normalizeArguments(tool, map[string]any{"query": []any{"HNSW", "ANN"}})
	assert.Equal(t, []any{"HNSW", "ANN"}, out["queries"])
}

func TestNormalizeToolCallReportsMissingRequiredParams(t *testing.T) {
	tool := Tool{Name: "search", Schema: json.RawMessage(`{"required":["queries"]}`)}
	_, err := normalizeToolCall(tool, research.ToolCall{Name: "search", Arguments: map[string]any{}})
	require.Error(t, err)
	var parseErr *research.ToolParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestNormalizeToolCallsPassesThroughUnknownTool(t *testing.T) {
	calls := []research.ToolCall{{Name: "mystery", Arguments: map[string]any{"x": 1}}}
	out, errs := normalizeToolCalls([]Tool{searchTool()}, calls)
	require.Len(t, out, 1)
	assert.Empty(t, errs)
	assert.Equal(t, "mystery", out[0].Name)
}
