package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jordangeorgiev/open-deep-research/internal/modeladapter"
	"github.com/jordangeorgiev/open-deep-research/internal/research"
)

var summarySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"summary": {"type": "string"},
		"key_excerpts": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["summary"]
}`)

type summaryDoc struct {
	Summary     string   `json:"summary"`
	KeyExcerpts []string `json:"key_excerpts"`
}

// summarize produces a short summary and key excerpts for a single raw
// result via the model adapter. On any failure — transport, structured
// output exhaustion, anything — it degrades gracefully: summary falls back
// to the result's title rather than failing the whole search batch.
func (p *Provider) summarize(ctx context.Context, result research.SearchResult) research.SearchResult {
	if p.adapter == nil || result.RawContent == "" {
		result.Summary = result.Title
		return result
	}

	prompt := fmt.Sprintf(
		"Summarize the following web page content in 2-3 sentences, and list up to 3 short verbatim excerpts most relevant to general research use.\n\nTitle: %s\nURL: %s\nContent:\n%s",
		result.Title, result.URL, result.RawContent,
	)

	messages := []modeladapter.Message{{Role: "user", Content: prompt}}
	doc, err := p.adapter.CompleteStructured(ctx, "You summarize web search results for a research assistant.", messages, summarySchema, modeladapter.Params{})
	if err != nil {
		p.logger.Warn("search result summarization failed, degrading to title", "url", result.URL, "error", err)
		result.Summary = result.Title
		return result
	}

	var decoded summaryDoc
	if err := json.Unmarshal(doc, &decoded); err != nil {
		result.Summary = result.Title
		return result
	}

	result.Summary = decoded.Summary
	result.KeyExcerpts = decoded.KeyExcerpts
	return result
}
