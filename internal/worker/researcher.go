// Package worker implements the worker researcher (C5): the bounded
// search→summarize→reflect→compress loop that drives a single delegated
// sub-question to a compressed Findings artifact.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jordangeorgiev/open-deep-research/internal/modeladapter"
	"github.com/jordangeorgiev/open-deep-research/internal/research"
	"github.com/jordangeorgiev/open-deep-research/internal/search"
	"github.com/jordangeorgiev/open-deep-research/internal/toolkit"
)

var compressionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"claims": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"text": {"type": "string"},
					"source_indices": {"type": "array", "items": {"type": "integer"}}
				},
				"required": ["text", "source_indices"]
			}
		},
		"sources": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"url": {"type": "string"},
					"title": {"type": "string"}
				},
				"required": ["url"]
			}
		}
	},
	"required": ["claims", "sources"]
}`)

type compressionDoc struct {
	Claims  []research.Claim   `json:"claims"`
	Sources []research.Source  `json:"sources"`
}

// Researcher drives one WorkerTask to completion.
type Researcher struct {
	adapter    *modeladapter.Adapter
	tools      *toolkit.Registry
	search     *search.Provider
	pruning    PruneSettings
	logger     *slog.Logger
	metrics    *research.Metrics
}

// New constructs a Researcher. tools must already be scoped to
// toolkit.WorkerToolNames; search is the provider the registered `search`
// tool handler dispatches to.
func New(adapter *modeladapter.Adapter, tools *toolkit.Registry, provider *search.Provider, pruning PruneSettings, logger *slog.Logger, metrics *research.Metrics) *Researcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Researcher{adapter: adapter, tools: tools, search: provider, pruning: pruning, logger: logger, metrics: metrics}
}

// Run executes the bounded research loop for task against brief, returning
// its terminal Findings. Run never returns a non-nil error for ordinary
// exhaustion or non-retryable step failures — those are reported via
// Findings.Status/Error so the supervisor can proceed with partial results;
// it returns an error only for caller cancellation.
func (r *Researcher) Run(ctx context.Context, task research.WorkerTask, brief research.Brief) (*research.Findings, error) {
	ctx, span := research.StartSpan(ctx, "worker.run")
	defer span.End()

	convo := []modeladapter.Message{{Role: "user", Content: r.systemPrompt(task, brief)}}
	var notes []string
	var sources []research.Source
	seenSources := make(map[string]int)

	toolCalls := 0
	status := research.WorkerExhausted

	for iter := 0; iter < task.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pruned, withinBudget := pruneResearchMessages(convo, r.pruning)
		convo = pruned
		if !withinBudget {
			status = research.WorkerExhausted
			break
		}

		text, calls, err := r.adapter.CompleteWithTools(ctx, "", convo, r.tools.Tools(), modeladapter.Params{})
		if err != nil {
			return r.failed(task, notes, sources, err), nil
		}

		if len(calls) == 0 {
			status = research.WorkerComplete
			if text != "" {
				notes = append(notes, text)
			}
			break
		}

		for _, call := range calls {
			if toolCalls >= task.MaxToolCalls {
				status = research.WorkerExhausted
				break
			}
			toolCalls++

			result := r.tools.Dispatch(ctx, call)
			convo = append(convo, modeladapter.Message{Role: "assistant", Content: fmt.Sprintf("Action: %s", call.Name)})
			convo = append(convo, modeladapter.Message{Role: "observation", Content: "Observation: " + result.Payload})

			if call.Name == toolkit.ToolSearch && result.Kind == research.ResultOK {
				notes = append(notes, result.Payload)
				sources = mergeSearchSources(sources, seenSources, result.Payload)
			}
		}

		if toolCalls >= task.MaxToolCalls {
			status = research.WorkerExhausted
			break
		}
	}

	if status != research.WorkerComplete && len(notes) == 0 {
		return &research.Findings{TaskID: task.ID, Status: research.WorkerExhausted, Sources: sources}, nil
	}

	return r.compress(ctx, task, notes, sources, status)
}

func (r *Researcher) systemPrompt(task research.WorkerTask, brief research.Brief) string {
	return fmt.Sprintf(
		"You are a research worker. Brief: %s\nSub-question: %s\nUse the available tools to gather concise, cited evidence, then signal completion.",
		brief.Question, task.SubQuestion,
	)
}

func (r *Researcher) failed(task research.WorkerTask, notes []string, sources []research.Source, err error) *research.Findings {
	return &research.Findings{
		TaskID:  task.ID,
		Status:  research.WorkerFailed,
		Error:   err.Error(),
		Sources: sources,
	}
}

func (r *Researcher) compress(ctx context.Context, task research.WorkerTask, notes []string, sources []research.Source, status research.WorkerStatus) (*research.Findings, error) {
	prompt := fmt.Sprintf("Sub-question: %s\n\nNotes:\n%s", task.SubQuestion, joinNotes(notes))
	messages := []modeladapter.Message{{Role: "user", Content: prompt}}

	doc, err := r.adapter.CompleteStructured(ctx, "Compress the notes below into cited claims. Every claim must reference at least one source index.", messages, compressionSchema, modeladapter.Params{})
	if err != nil {
		return &research.Findings{
			TaskID:  task.ID,
			Status:  research.WorkerFailed,
			Error:   err.Error(),
			Sources: sources,
		}, nil
	}

	var decoded compressionDoc
	if err := json.Unmarshal(doc, &decoded); err != nil {
		return &research.Findings{
			TaskID:  task.ID,
			Status:  research.WorkerFailed,
			Error:   err.Error(),
			Sources: sources,
		}, nil
	}

	finalSources := decoded.Sources
	if len(finalSources) == 0 {
		finalSources = sources
	}

	return &research.Findings{
		TaskID:         task.ID,
		CompressedText: renderClaims(decoded.Claims),
		Claims:         decoded.Claims,
		RawNotes:       notes,
		Sources:        finalSources,
		Status:         status,
	}, nil
}

func renderClaims(claims []research.Claim) string {
	out := ""
	for _, c := range claims {
		out += "- " + c.Text + "\n"
	}
	return out
}

func joinNotes(notes []string) string {
	out := ""
	for _, n := range notes {
		out += n + "\n\n"
	}
	return out
}

// pruneResearchMessages adapts Prune's research.Message-based pruning to the
// modeladapter.Message conversation shape the adapter operates on, and
// reports whether the pruned result fits within settings.MaxChars.
func pruneResearchMessages(convo []modeladapter.Message, settings PruneSettings) ([]modeladapter.Message, bool) {
	asResearch := make([]research.Message, len(convo))
	for i, m := range convo {
		asResearch[i] = research.Message{Role: research.Role(m.Role), Content: m.Content}
	}

	pruned, withinBudget := Prune(asResearch, settings)

	out := make([]modeladapter.Message, len(pruned))
	for i, m := range pruned {
		out[i] = modeladapter.Message{Role: string(m.Role), Content: m.Content}
	}
	return out, withinBudget
}

// mergeSearchSources decodes a search tool's JSON result payload and merges
// any new (url, title) pairs into sources, preserving first-seen order.
func mergeSearchSources(sources []research.Source, seen map[string]int, payload string) []research.Source {
	var results []research.SearchResult
	if err := json.Unmarshal([]byte(payload), &results); err != nil {
		return sources
	}
	for _, r := range results {
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = len(sources)
		sources = append(sources, research.Source{URL: r.URL, Title: r.Title})
	}
	return sources
}
