// Command deepresearch is a thin demonstration CLI for the orchestrator: it
// parses flags, builds a Config, and runs one research session to stdout.
// It deliberately does not load a config file or .env, and performs no
// authentication of its own beyond reading API keys from the environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jordangeorgiev/open-deep-research/internal/modeladapter"
	"github.com/jordangeorgiev/open-deep-research/internal/orchestrator"
	"github.com/jordangeorgiev/open-deep-research/internal/research"
)

func main() {
	var (
		question           = flag.String("question", "", "research question (required)")
		supervisorModel    = flag.String("supervisor-model", "claude-sonnet-4-20250514", "model for the supervisor phase")
		workerModel        = flag.String("worker-model", "claude-sonnet-4-20250514", "model for worker researchers")
		summarizationModel = flag.String("summarization-model", "gpt-4o-mini", "model for search result summarization")
		finalReportModel   = flag.String("final-report-model", "claude-sonnet-4-20250514", "model for report synthesis")
		searchEndpoint     = flag.String("search-endpoint", "http://localhost:8080/search", "SearXNG-compatible metasearch endpoint, queried with ?q=<query>&format=json")
		allowClarification = flag.Bool("allow-clarification", false, "let the supervisor ask a clarifying question before starting")
		maxConcurrentUnits = flag.Int("max-concurrent-units", 3, "bounded fan-out width for delegated sub-questions")
		maxSupervisorIters = flag.Int("max-supervisor-iterations", 6, "supervisor loop iteration cap")
		maxTotalToolCalls  = flag.Int("max-total-tool-calls", 10, "supervisor tool-call budget")
		responseLanguage   = flag.String("response-language", "en", "sets Config.ResponseLanguage (not passed to any model prompt)")
		printSchema        = flag.Bool("print-config-schema", false, "print the Config JSON schema and exit")
	)
	flag.Parse()

	if *printSchema {
		schema, err := orchestrator.ConfigSchema()
		if err != nil {
			fmt.Fprintln(os.Stderr, "deepresearch: schema:", err)
			os.Exit(1)
		}
		fmt.Println(schema)
		return
	}

	if strings.TrimSpace(*question) == "" {
		fmt.Fprintln(os.Stderr, "deepresearch: -question is required")
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg := orchestrator.Config{
		SupervisorModel:         *supervisorModel,
		WorkerModel:             *workerModel,
		SummarizationModel:      *summarizationModel,
		FinalReportModel:        *finalReportModel,
		SearchEndpoint:          *searchEndpoint,
		AllowClarification:      *allowClarification,
		MaxConcurrentUnits:      *maxConcurrentUnits,
		MaxSupervisorIterations: *maxSupervisorIters,
		MaxTotalToolCalls:       *maxTotalToolCalls,
		ResponseLanguage:        *responseLanguage,
		BackendFactory:          backendFactory(),
		Logger:                  logger,
	}

	orch, err := orchestrator.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "deepresearch: setup:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := orch.Run(ctx, []research.Message{{Role: research.RoleUser, Content: *question}})
	if err != nil {
		fmt.Fprintln(os.Stderr, "deepresearch: research session failed:", err)
		os.Exit(1)
	}

	fmt.Println(report.Markdown)
	logger.Info("research session complete",
		"termination", report.Metadata.Termination,
		"truncated", report.Metadata.Truncated,
		"iterations", report.Metadata.Iterations,
		"tool_calls_total", report.Metadata.ToolCallsTotal,
		"sources", len(report.Sources),
	)
}

// backendFactory picks a provider from the model name's prefix and wires
// credentials from the environment. It is the only piece of provider
// knowledge in this binary; internal/orchestrator has none.
func backendFactory() orchestrator.BackendFactory {
	return func(model string) (modeladapter.Backend, error) {
		switch {
		case strings.HasPrefix(model, "claude"):
			return modeladapter.NewAnthropicBackend(modeladapter.AnthropicConfig{
				APIKey: os.Getenv("ANTHROPIC_API_KEY"),
				Model:  model,
			})
		case strings.HasPrefix(model, "gemini"):
			return modeladapter.NewGeminiBackend(context.Background(), modeladapter.GeminiConfig{
				APIKey: os.Getenv("GEMINI_API_KEY"),
				Model:  model,
			})
		default:
			return modeladapter.NewOpenAIBackend(modeladapter.OpenAIConfig{
				APIKey: os.Getenv("OPENAI_API_KEY"),
				Model:  model,
			})
		}
	}
}
