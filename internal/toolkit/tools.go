package toolkit

import "github.com/jordangeorgiev/open-deep-research/internal/modeladapter"

// Fixed tool names, referenced by worker and supervisor loops to build their
// scoped registries.
const (
	ToolSearch           = "search"
	ToolReflect          = "reflect"
	ToolDelegateResearch = "delegate_research"
	ToolResearchComplete = "research_complete"
)

// SearchTool declares the batched web-search tool available to worker
// researchers. A single call may carry several queries, issued concurrently
// by the search provider.
func SearchTool() modeladapter.Tool {
	return modeladapter.Tool{
		Name:        ToolSearch,
		Description: "Search the web for one or more queries and return summarized, deduplicated results.",
		Schema: mustSchema(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"queries": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "One or more search queries to issue.",
				},
				"max_results_per_query": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results to return per query (default: 5).",
					"minimum":     1,
					"maximum":     20,
				},
			},
			"required": []string{"queries"},
		}),
		Aliases: []modeladapter.AliasRule{
			{Alias: "query", Canonical: "queries", WrapList: true},
		},
	}
}

// ReflectTool declares the reasoning checkpoint tool: the model records a
// thought without performing any side effect, used by both the worker and
// supervisor loops to force an explicit planning step.
func ReflectTool() modeladapter.Tool {
	return modeladapter.Tool{
		Name:        ToolReflect,
		Description: "Record a reflection on the current state of research before deciding the next step.",
		Schema: mustSchema(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"reflection": map[string]any{
					"type":        "string",
					"description": "A short note on what is known, what is missing, and what to do next.",
				},
			},
			"required": []string{"reflection"},
		}),
		Aliases: []modeladapter.AliasRule{
			{Alias: "prompt", Canonical: "reflection"},
			{Alias: "thought", Canonical: "reflection"},
			{Alias: "question", Canonical: "reflection"},
		},
	}
}

// DelegateResearchTool declares the supervisor-only tool for spawning a
// worker researcher over a bounded sub-question.
func DelegateResearchTool() modeladapter.Tool {
	return modeladapter.Tool{
		Name:        ToolDelegateResearch,
		Description: "Delegate a sub-question to an independent worker researcher and await its findings.",
		Schema: mustSchema(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"sub_question": map[string]any{
					"type":        "string",
					"description": "A single, independently researchable sub-question.",
				},
			},
			"required": []string{"sub_question"},
		}),
	}
}

// ResearchCompleteTool declares the tool that signals no further tool use is
// needed. Both loops offer it. The supervisor loop ends after the turn in
// which it is called; the worker loop dispatches it to its handler like any
// other tool and ends only when the model replies with no tool calls.
func ResearchCompleteTool() modeladapter.Tool {
	return modeladapter.Tool{
		Name:        ToolResearchComplete,
		Description: "Signal that research is complete and no further tool calls are needed.",
		Schema: mustSchema(map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}),
	}
}

// WorkerToolNames are the tools available to a worker researcher's loop.
var WorkerToolNames = []string{ToolSearch, ToolReflect, ToolResearchComplete}

// SupervisorToolNames are the tools available to the supervisor's loop.
var SupervisorToolNames = []string{ToolReflect, ToolDelegateResearch, ToolResearchComplete}
