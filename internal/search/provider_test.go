package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordangeorgiev/open-deep-research/internal/modeladapter"
	"github.com/jordangeorgiev/open-deep-research/internal/research"
)

type fakeDoer struct {
	byQuery map[string]metasearchResponse
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	q := req.URL.Query().Get("q")
	resp, ok := f.byQuery[q]
	if !ok {
		return &http.Response{StatusCode: http.StatusInternalServerError, Body: http.NoBody}, nil
	}
	body, _ := json.Marshal(resp)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}, nil
}

func TestSearchDedupesAcrossQueriesPreservingFirstSeenOrder(t *testing.T) {
	doer := &fakeDoer{byQuery: map[string]metasearchResponse{
		"HNSW": {Results: []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		}{
			{Title: "HNSW paper", URL: "https://a.example/hnsw", Content: "graph based index"},
			{Title: "shared", URL: "https://shared.example", Content: "shared content"},
		}},
		"ANN search": {Results: []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		}{
			{Title: "shared dup", URL: "https://shared.example", Content: "duplicate"},
			{Title: "ANN overview", URL: "https://b.example/ann", Content: "approximate nearest neighbor"},
		}},
	}}

	provider := NewProvider(Config{Endpoint: "https://search.example"}, nil, doer, nil, nil)
	results, err := provider.Search(context.Background(), research.SearchQueryBatch{Queries: []string{"HNSW", "ANN search"}})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "https://a.example/hnsw", results[0].URL)
	assert.Equal(t, "https://shared.example", results[1].URL)
	assert.Equal(t, "https://b.example/ann", results[2].URL)
}

func TestSearchDegradesSingleQueryFailureToEmptyResults(t *testing.T) {
	doer := &fakeDoer{byQuery: map[string]metasearchResponse{
		"good query": {Results: []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		}{{Title: "ok", URL: "https://ok.example", Content: "fine"}}},
	}}

	provider := NewProvider(Config{Endpoint: "https://search.example"}, nil, doer, nil, nil)
	results, err := provider.Search(context.Background(), research.SearchQueryBatch{Queries: []string{"good query", "missing query"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://ok.example", results[0].URL)
}

func TestSummarizeFallsBackToTitleWithoutAdapter(t *testing.T) {
	provider := NewProvider(Config{Endpoint: "https://search.example"}, nil, &fakeDoer{}, nil, nil)
	result := provider.summarize(context.Background(), research.SearchResult{Title: "A Title", URL: "https://x.example", RawContent: "content"})
	assert.Equal(t, "A Title", result.Summary)
}

type fakeSummarizeBackend struct{}

func (f *fakeSummarizeBackend) Name() string { return "fake" }
func (f *fakeSummarizeBackend) Capabilities() modeladapter.Capabilities {
	return modeladapter.Capabilities{NativeStructured: false, NativeTools: false}
}
func (f *fakeSummarizeBackend) Complete(ctx context.Context, system string, messages []modeladapter.Message, params modeladapter.Params) (string, error) {
	return `{"summary": "a concise summary", "key_excerpts": ["excerpt one"]}`, nil
}

func TestSummarizeUsesAdapterWhenProvided(t *testing.T) {
	adapter := modeladapter.New(&fakeSummarizeBackend{}, modeladapter.Options{})
	provider := NewProvider(Config{Endpoint: "https://search.example"}, adapter, &fakeDoer{}, nil, nil)

	result := provider.summarize(context.Background(), research.SearchResult{Title: "A Title", URL: "https://x.example", RawContent: "content"})
	assert.Equal(t, "a concise summary", result.Summary)
	assert.Equal(t, []string{"excerpt one"}, result.KeyExcerpts)
}
