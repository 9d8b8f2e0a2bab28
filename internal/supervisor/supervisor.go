// Package supervisor implements the lead researcher (C6): clarification,
// brief production, the bounded delegate/fan-out loop, and the handoff into
// report synthesis.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jordangeorgiev/open-deep-research/internal/modeladapter"
	"github.com/jordangeorgiev/open-deep-research/internal/research"
	"github.com/jordangeorgiev/open-deep-research/internal/synthesis"
	"github.com/jordangeorgiev/open-deep-research/internal/toolkit"
	"github.com/jordangeorgiev/open-deep-research/internal/worker"
)

// Options configures a Supervisor's bounds and optional phases. Zero values
// are replaced by their defaults in New.
type Options struct {
	MaxIterations      int // max_supervisor_iterations, default 6
	MaxTotalToolCalls  int // max_total_tool_calls, default 10
	MaxConcurrentUnits int // max_concurrent_units, default 3
	AllowClarification bool
	Logger             *slog.Logger
	Metrics            *research.Metrics
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = 6
	}
	if o.MaxTotalToolCalls <= 0 {
		o.MaxTotalToolCalls = 10
	}
	if o.MaxConcurrentUnits <= 0 {
		o.MaxConcurrentUnits = 3
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Supervisor drives one research session: clarify, brief, delegate/fan-out,
// synthesize.
type Supervisor struct {
	adapter     *modeladapter.Adapter
	tools       *toolkit.Registry
	researcher  *worker.Researcher
	synthesizer *synthesis.Synthesizer
	opts        Options
}

// New constructs a Supervisor. tools should already be scoped to
// toolkit.SupervisorToolNames (the caller typically builds one Registry with
// handlers for reflect/delegate_research/research_complete and calls
// Registry.Scoped). researcher drives each delegated WorkerTask; synthesizer
// produces the final report.
func New(adapter *modeladapter.Adapter, tools *toolkit.Registry, researcher *worker.Researcher, synthesizer *synthesis.Synthesizer, opts Options) *Supervisor {
	return &Supervisor{
		adapter:     adapter,
		tools:       tools,
		researcher:  researcher,
		synthesizer: synthesizer,
		opts:        opts.withDefaults(),
	}
}

// Run executes one full session from the initial user messages to a final
// Report. If the Clarify phase determines more information is needed, Run
// returns a *ClarificationNeeded error and no report; the caller is expected
// to append the user's answer to userMessages and call Run again.
func (s *Supervisor) Run(ctx context.Context, userMessages []research.Message) (*research.Report, error) {
	ctx, span := research.StartSpan(ctx, "supervisor.run")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, research.ErrCancelled
	}

	if s.opts.AllowClarification {
		userText := lastUserText(userMessages)
		needed, err := s.clarify(ctx, userText)
		if err != nil {
			return nil, research.NewStepError("supervisor", research.KindStructuredOutput, "clarification check failed", err)
		}
		if needed != nil {
			return nil, needed
		}
	}

	brief, err := s.produceBrief(ctx, userMessages)
	if err != nil {
		return nil, research.NewStepError("supervisor", research.KindStructuredOutput, "brief production failed", err)
	}

	convo := []modeladapter.Message{{Role: "user", Content: renderBrief(brief)}}

	var allFindings []*research.Findings
	termination := research.DoneByIterations
	toolCallsTotal := 0
	executedIterations := 0

	for iter := 0; iter < s.opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, research.ErrCancelled
		}
		executedIterations++

		iterCtx, iterSpan := research.StartSpan(ctx, "supervisor.iteration")
		text, calls, err := s.adapter.CompleteWithTools(iterCtx, "", convo, s.tools.Tools(), modeladapter.Params{})
		iterSpan.End()
		if err != nil {
			return nil, research.NewStepError("supervisor", research.KindTransport, "supervisor turn failed", err)
		}
		if text != "" {
			convo = append(convo, modeladapter.Message{Role: "assistant", Content: text})
		}

		var batch []research.WorkerTask
		complete := false

		for _, call := range calls {
			if toolCallsTotal >= s.opts.MaxTotalToolCalls {
				break
			}
			toolCallsTotal++

			switch call.Name {
			case toolkit.ToolDelegateResearch:
				subQuestion, _ := call.Arguments["sub_question"].(string)
				task := research.WorkerTask{
					ID:            uuid.NewString(),
					SubQuestion:   subQuestion,
					BriefRef:      &brief,
					MaxIterations: workerIterationCap,
					MaxToolCalls:  workerToolCallCap,
				}
				batch = append(batch, task)
				convo = append(convo, modeladapter.Message{Role: "observation", Content: fmt.Sprintf("Observation: delegated %s", task.ID)})
			case toolkit.ToolResearchComplete:
				complete = true
				convo = append(convo, modeladapter.Message{Role: "observation", Content: "Observation: research marked complete"})
			default:
				result := s.tools.Dispatch(ctx, call)
				convo = append(convo, modeladapter.Message{Role: "observation", Content: "Observation: " + result.Payload})
			}
		}

		if toolCallsTotal >= s.opts.MaxTotalToolCalls {
			termination = research.DoneByToolBudget
		}

		if len(batch) > 0 {
			results, err := fanOut(ctx, s.researcher, batch, brief, s.opts.MaxConcurrentUnits)
			if err != nil {
				return nil, research.ErrCancelled
			}
			for i, findings := range results {
				allFindings = append(allFindings, findings)
				convo = append(convo, modeladapter.Message{Role: "observation", Content: fmt.Sprintf("Observation: findings for %s: %s", batch[i].ID, findings.CompressedText)})
			}
		}

		if termination == research.DoneByToolBudget {
			break
		}
		if complete {
			termination = research.DoneByModel
			break
		}
		if len(calls) == 0 {
			termination = research.DoneByModel
			break
		}
	}

	report, err := s.synthesizer.Synthesize(ctx, brief, allFindings)
	if err != nil {
		return nil, err
	}
	report.Metadata = research.ReportMetadata{
		Termination:    termination,
		Truncated:      termination != research.DoneByModel,
		Iterations:     executedIterations,
		ToolCallsTotal: toolCallsTotal,
	}
	return report, nil
}

// workerIterationCap and workerToolCallCap bound each delegated worker's own
// loop; they are independent of the supervisor's own iteration/tool budget.
const (
	workerIterationCap = 6
	workerToolCallCap  = 8
)

func lastUserText(messages []research.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == research.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

func renderBrief(brief research.Brief) string {
	return fmt.Sprintf("Research brief\nQuestion: %s\nSuccess criteria: %v\nConstraints: %v\n\nUse the available tools to delegate sub-questions to worker researchers, then call research_complete when satisfied.",
		brief.Question, brief.SuccessCriteria, brief.Constraints)
}
