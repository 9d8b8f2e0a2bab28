// Package orchestrator is the composition root that wires the Model
// Adapter, Search Provider, Tool Registry, Worker Researcher, Supervisor,
// and Report Synthesizer into one callable facade, mirroring the teacher's
// internal/multiagent.Orchestrator composition-root pattern.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jordangeorgiev/open-deep-research/internal/modeladapter"
	"github.com/jordangeorgiev/open-deep-research/internal/research"
	"github.com/jordangeorgiev/open-deep-research/internal/search"
	"github.com/jordangeorgiev/open-deep-research/internal/supervisor"
	"github.com/jordangeorgiev/open-deep-research/internal/synthesis"
	"github.com/jordangeorgiev/open-deep-research/internal/toolkit"
	"github.com/jordangeorgiev/open-deep-research/internal/transport"
	"github.com/jordangeorgiev/open-deep-research/internal/worker"
)

// BackendFactory constructs the named backend for one of Config's four
// model-selection fields. The orchestrator has no opinion on provider
// wiring (API keys, base URLs); the caller supplies this.
type BackendFactory func(model string) (modeladapter.Backend, error)

// Config is the plain Go struct enumerating every option from the
// configuration surface. There is no file or environment loading: callers
// construct this directly, per the Non-goal on config-file support.
type Config struct {
	// Per-phase backend selection.
	SupervisorModel    string `json:"supervisor_model"`
	WorkerModel        string `json:"worker_model"`
	SummarizationModel string `json:"summarization_model"`
	FinalReportModel   string `json:"final_report_model"`

	// Concurrency and iteration bounds.
	MaxConcurrentUnits      int `json:"max_concurrent_units"`
	MaxSupervisorIterations int `json:"max_supervisor_iterations"`
	MaxWorkerIterations     int `json:"max_worker_iterations"`
	MaxTotalToolCalls       int `json:"max_total_tool_calls"`
	MaxWorkerToolCalls      int `json:"max_worker_tool_calls"`

	// Content and retry bounds.
	MaxContentLength     int `json:"max_content_length"`
	MaxStructuredRetries int `json:"max_structured_retries"`
	MaxTransportRetries  int `json:"max_transport_retries"`

	// Phase toggles.
	AllowClarification bool `json:"allow_clarification"`

	// Search configuration.
	SearchProvider     string `json:"search_provider"`
	SearchEndpoint     string `json:"search_endpoint"`
	MaxResultsPerQuery int    `json:"max_results_per_query"`

	// ResponseLanguage defaults to "en". New does not pass it to any
	// component: no model prompt carries it, and a brief whose language the
	// model leaves empty gets "en" whatever this field says.
	ResponseLanguage string `json:"response_language"`

	// BackendFactory is required; it is not part of the published schema
	// since it is not serializable configuration.
	BackendFactory BackendFactory `json:"-"`

	// HTTPClient is the search provider's HTTP client. Defaults to
	// http.DefaultClient.
	HTTPClient search.HTTPDoer `json:"-"`

	// Registerer receives Prometheus metrics. A private registry is used
	// when nil, so concurrent orchestrations in tests never collide on
	// global registration.
	Registerer prometheus.Registerer `json:"-"`

	Logger *slog.Logger `json:"-"`
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrentUnits <= 0 {
		c.MaxConcurrentUnits = 3
	}
	if c.MaxSupervisorIterations <= 0 {
		c.MaxSupervisorIterations = 6
	}
	if c.MaxWorkerIterations <= 0 {
		c.MaxWorkerIterations = 6
	}
	if c.MaxTotalToolCalls <= 0 {
		c.MaxTotalToolCalls = 10
	}
	if c.MaxWorkerToolCalls <= 0 {
		c.MaxWorkerToolCalls = 8
	}
	if c.MaxContentLength <= 0 {
		c.MaxContentLength = 50_000
	}
	if c.MaxStructuredRetries <= 0 {
		c.MaxStructuredRetries = 3
	}
	if c.MaxTransportRetries <= 0 {
		c.MaxTransportRetries = 3
	}
	if c.MaxResultsPerQuery <= 0 {
		c.MaxResultsPerQuery = 5
	}
	if c.ResponseLanguage == "" {
		c.ResponseLanguage = "en"
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Orchestrator is the wired-up facade. Construct with New and call Run once
// per research session.
type Orchestrator struct {
	supervisor *supervisor.Supervisor
	cfg        Config
}

// New wires C1-C7 together from cfg. BackendFactory is invoked once for
// each of the four model-selection fields, also when two fields name the
// same model.
func New(cfg Config) (*Orchestrator, error) {
	cfg = cfg.withDefaults()
	if cfg.BackendFactory == nil {
		return nil, fmt.Errorf("orchestrator: BackendFactory is required")
	}

	metrics := research.NewMetrics(cfg.Registerer)

	supervisorBackend, err := cfg.BackendFactory(cfg.SupervisorModel)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: supervisor backend: %w", err)
	}
	workerBackend, err := cfg.BackendFactory(cfg.WorkerModel)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: worker backend: %w", err)
	}
	summarizationBackend, err := cfg.BackendFactory(cfg.SummarizationModel)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: summarization backend: %w", err)
	}
	finalReportBackend, err := cfg.BackendFactory(cfg.FinalReportModel)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: final report backend: %w", err)
	}

	adapterOpts := modeladapter.Options{
		MaxStructuredRetries: cfg.MaxStructuredRetries,
		TransportRetry:       transport.Config{MaxAttempts: cfg.MaxTransportRetries},
		Logger:               cfg.Logger,
		Metrics:              metrics,
	}

	supervisorAdapter := modeladapter.New(supervisorBackend, adapterOpts)
	workerAdapter := modeladapter.New(workerBackend, adapterOpts)
	summarizationAdapter := modeladapter.New(summarizationBackend, adapterOpts)
	finalReportAdapter := modeladapter.New(finalReportBackend, adapterOpts)

	searchProvider := search.NewProvider(search.Config{
		Endpoint:           cfg.SearchEndpoint,
		MaxResultsPerQuery: cfg.MaxResultsPerQuery,
		MaxContentLength:   cfg.MaxContentLength,
	}, summarizationAdapter, cfg.HTTPClient, cfg.Logger, metrics)

	tools := toolkit.NewRegistry()
	tools.Register(toolkit.SearchTool(), searchToolHandler(searchProvider, cfg.MaxResultsPerQuery))
	tools.Register(toolkit.ReflectTool(), reflectToolHandler())
	tools.Register(toolkit.DelegateResearchTool(), ackHandler())
	tools.Register(toolkit.ResearchCompleteTool(), ackHandler())

	researcher := worker.New(
		workerAdapter,
		tools.Scoped(toolkit.WorkerToolNames...),
		searchProvider,
		worker.DefaultPruneSettings(),
		cfg.Logger,
		metrics,
	)

	synthesizer := synthesis.New(finalReportAdapter, cfg.Logger)

	sup := supervisor.New(supervisorAdapter, tools.Scoped(toolkit.SupervisorToolNames...), researcher, synthesizer, supervisor.Options{
		MaxIterations:      cfg.MaxSupervisorIterations,
		MaxTotalToolCalls:  cfg.MaxTotalToolCalls,
		MaxConcurrentUnits: cfg.MaxConcurrentUnits,
		AllowClarification: cfg.AllowClarification,
		Logger:             cfg.Logger,
		Metrics:            metrics,
	})

	return &Orchestrator{supervisor: sup, cfg: cfg}, nil
}

// Run executes one research session end to end: clarify (if enabled),
// brief, bounded delegate/fan-out loop, synthesis.
func (o *Orchestrator) Run(ctx context.Context, userMessages []research.Message) (*research.Report, error) {
	return o.supervisor.Run(ctx, userMessages)
}

// ConfigSchema publishes a JSON schema for Config's serializable fields,
// for embedding callers that validate externally-sourced configuration
// before constructing it. The module itself never reads such a file.
func ConfigSchema() (string, error) {
	doc, err := modeladapter.ReflectSchema(&Config{})
	if err != nil {
		return "", err
	}
	return string(doc), nil
}

func searchToolHandler(provider *search.Provider, defaultMaxResults int) toolkit.Handler {
	return func(ctx context.Context, call research.ToolCall) (research.ToolResult, error) {
		queries, _ := call.Arguments["queries"].([]any)
		batch := research.SearchQueryBatch{MaxResultsPerQuery: defaultMaxResults}
		for _, q := range queries {
			if s, ok := q.(string); ok {
				batch.Queries = append(batch.Queries, s)
			}
		}
		if n, ok := call.Arguments["max_results_per_query"].(float64); ok && n > 0 {
			batch.MaxResultsPerQuery = int(n)
		}

		results, err := provider.Search(ctx, batch)
		if err != nil {
			return research.ToolResult{Kind: research.ResultError, Payload: err.Error()}, nil
		}
		doc, err := json.Marshal(results)
		if err != nil {
			return research.ToolResult{Kind: research.ResultError, Payload: err.Error()}, nil
		}
		return research.ToolResult{Kind: research.ResultOK, Payload: string(doc)}, nil
	}
}

func reflectToolHandler() toolkit.Handler {
	return func(ctx context.Context, call research.ToolCall) (research.ToolResult, error) {
		return research.ToolResult{Kind: research.ResultOK, Payload: "reflection recorded"}, nil
	}
}

// ackHandler backs delegate_research and research_complete in the shared
// registry so Registry.Tools() always has their declarations; the
// supervisor loop intercepts both tool names before dispatch, so these
// handlers only run if a caller dispatches them directly (e.g. in tests).
func ackHandler() toolkit.Handler {
	return func(ctx context.Context, call research.ToolCall) (research.ToolResult, error) {
		return research.ToolResult{Kind: research.ResultOK, Payload: "ok"}, nil
	}
}
