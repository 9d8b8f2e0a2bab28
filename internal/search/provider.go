// Package search implements the search provider: batched, concurrent
// metasearch queries against a single configured endpoint, with per-result
// summarization and URL deduplication.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jordangeorgiev/open-deep-research/internal/modeladapter"
	"github.com/jordangeorgiev/open-deep-research/internal/research"
)

// defaultMaxContentLength bounds how much raw content a single result
// carries before summarization, per spec's content truncation budget.
const defaultMaxContentLength = 50_000

// HTTPDoer is the minimal surface Provider needs from an HTTP client,
// satisfied by *http.Client and by test doubles.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Provider.
type Config struct {
	// Endpoint is the metasearch instance queried for every search, expected
	// to accept ?q=<query>&format=json and return a SearXNG-shaped response.
	Endpoint string

	// MaxResultsPerQuery bounds results returned per query when the tool call
	// did not specify max_results_per_query. Default 5.
	MaxResultsPerQuery int

	// MaxContentLength truncates raw result content before summarization.
	// Default 50,000 characters.
	MaxContentLength int

	// RateLimit bounds outbound queries per second against Endpoint.
	RateLimit rate.Limit

	// Burst is the token bucket burst size. Default 4.
	Burst int

	// HTTPTimeout is the timeout of the HTTP client NewProvider builds when
	// it is given none; a caller-supplied client keeps its own timeout.
	// Default 15s.
	HTTPTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxResultsPerQuery <= 0 {
		c.MaxResultsPerQuery = 5
	}
	if c.MaxContentLength <= 0 {
		c.MaxContentLength = defaultMaxContentLength
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 4
	}
	if c.Burst <= 0 {
		c.Burst = 4
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 15 * time.Second
	}
	return c
}

// Provider executes search query batches against a single metasearch
// endpoint, summarizing and deduplicating results.
type Provider struct {
	cfg     Config
	client  HTTPDoer
	limiter *rate.Limiter
	adapter *modeladapter.Adapter
	logger  *slog.Logger
	metrics *research.Metrics
}

// NewProvider constructs a Provider. adapter is used to summarize each raw
// result; when client is nil, an *http.Client with cfg.HTTPTimeout is used.
func NewProvider(cfg Config, adapter *modeladapter.Adapter, client HTTPDoer, logger *slog.Logger, metrics *research.Metrics) *Provider {
	cfg = cfg.withDefaults()
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(cfg.RateLimit, cfg.Burst),
		adapter: adapter,
		logger:  logger,
		metrics: metrics,
	}
}

// Search executes the queries in batch concurrently, at most four in flight
// at once and paced by the configured rate limiter, then deduplicates
// results by URL, preserving the order in which each URL was first seen
// across the query list. A single query's failure degrades that query to
// zero results rather than failing the whole batch. Each query is issued
// once; a failed query is not retried.
func (p *Provider) Search(ctx context.Context, batch research.SearchQueryBatch) ([]research.SearchResult, error) {
	const maxConcurrentQueries = 4

	maxResults := batch.MaxResultsPerQuery
	if maxResults <= 0 {
		maxResults = p.cfg.MaxResultsPerQuery
	}

	perQuery := make([][]research.SearchResult, len(batch.Queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQueries)
	for i, q := range batch.Queries {
		i, q := i, q
		g.Go(func() error {
			results, err := p.searchOne(gctx, q, maxResults)
			if err != nil {
				p.logger.Warn("search query failed, degrading to empty result set", "query", q, "error", err)
				return nil
			}
			perQuery[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return p.dedupeAndSummarize(ctx, perQuery), nil
}

func (p *Provider) dedupeAndSummarize(ctx context.Context, perQuery [][]research.SearchResult) []research.SearchResult {
	seen := make(map[string]bool)
	var ordered []research.SearchResult
	for _, results := range perQuery {
		for _, r := range results {
			if seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			ordered = append(ordered, r)
		}
	}

	for i := range ordered {
		ordered[i] = p.summarize(ctx, ordered[i])
	}
	return ordered
}

func (p *Provider) searchOne(ctx context.Context, query string, maxResults int) ([]research.SearchResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(p.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("search: invalid endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("q", query)
	q.Set("format", "json")
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: endpoint returned status %d", resp.StatusCode)
	}

	var decoded metasearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	now := time.Now()
	results := make([]research.SearchResult, 0, maxResults)
	for i := 0; i < len(decoded.Results) && i < maxResults; i++ {
		r := decoded.Results[i]
		content := r.Title + "\n" + r.Content
		if len(content) > p.cfg.MaxContentLength {
			content = content[:p.cfg.MaxContentLength]
		}
		results = append(results, research.SearchResult{
			URL:        r.URL,
			Title:      r.Title,
			RawContent: content,
			FetchedAt:  now,
		})
	}
	return results, nil
}

// metasearchResponse is the SearXNG-shaped JSON document the configured
// endpoint is expected to return.
type metasearchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}
