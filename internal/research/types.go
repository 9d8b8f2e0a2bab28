// Package research defines the shared data model for the deep research
// orchestrator: conversation messages, the research brief, worker tasks and
// findings, and the final report. Types here are plain structs; lifecycle and
// ownership rules (brief immutability, append-only conversations, findings
// produced exactly once) are enforced by the packages that construct them,
// not by the types themselves.
package research

import "time"

// Role identifies the sender of a Message.
type Role string

const (
	RoleUser        Role = "user"
	RoleAssistant   Role = "assistant"
	RoleSystem      Role = "system"
	RoleObservation Role = "observation"
)

// Message is one entry in an append-only conversation.
type Message struct {
	Role    Role           `json:"role"`
	Content string         `json:"content"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Brief is the immutable research brief produced once by the supervisor from
// the initial user messages. Every field is fixed at construction time;
// callers must treat a Brief as read-only thereafter.
type Brief struct {
	Question        string   `json:"question"`
	SuccessCriteria  []string `json:"success_criteria"`
	Constraints      []string `json:"constraints"`
	Language         string   `json:"language"`
}

// ToolCall is a single tool invocation requested by a model, whether parsed
// natively or decoded from the ReAct text grammar.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ResultKind discriminates a successful tool result from an error result.
type ResultKind string

const (
	ResultOK    ResultKind = "ok"
	ResultError ResultKind = "error"
)

// ToolResult is the outcome of dispatching a ToolCall. It is always appended
// to the owning conversation as an observation message.
type ToolResult struct {
	CallID  string     `json:"call_id"`
	Kind    ResultKind `json:"kind"`
	Payload string     `json:"payload"`
}

// SearchQueryBatch is a set of search queries issued together by one `search`
// tool call.
type SearchQueryBatch struct {
	Queries            []string `json:"queries"`
	MaxResultsPerQuery int      `json:"max_results_per_query"`
}

// SearchResult is a single deduplicated, summarized search hit.
type SearchResult struct {
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	RawContent   string    `json:"raw_content"`
	Summary      string    `json:"summary"`
	KeyExcerpts  []string  `json:"key_excerpts"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Source is a citation-worthy (url, title) pair.
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// WorkerStatus is the terminal status of a worker task.
type WorkerStatus string

const (
	WorkerComplete  WorkerStatus = "complete"
	WorkerExhausted WorkerStatus = "exhausted"
	WorkerFailed    WorkerStatus = "failed"
)

// WorkerTask is a one-shot unit of delegated research created by the
// supervisor. It is never reassigned once dispatched.
type WorkerTask struct {
	ID             string `json:"id"`
	SubQuestion    string `json:"sub_question"`
	BriefRef       *Brief `json:"-"`
	MaxIterations  int    `json:"max_iterations"`
	MaxToolCalls   int    `json:"max_tool_calls"`
}

// Claim is one cited claim line in a worker's compressed findings.
type Claim struct {
	Text          string `json:"text"`
	SourceIndices []int  `json:"source_indices"`
}

// Findings is a worker's terminal, immutable output. Produced exactly once
// per WorkerTask.
type Findings struct {
	TaskID        string   `json:"task_id"`
	CompressedText string  `json:"compressed_text"`
	Claims        []Claim  `json:"claims,omitempty"`
	RawNotes      []string `json:"-"` // transient: never persisted alongside compressed findings
	Sources       []Source `json:"sources"`
	Status        WorkerStatus `json:"status"`
	Error         string   `json:"error,omitempty"`
}

// TerminationReason records why the supervisor loop stopped.
type TerminationReason string

const (
	DoneByModel      TerminationReason = "done_by_model"
	DoneByIterations TerminationReason = "done_by_iterations"
	DoneByToolBudget TerminationReason = "done_by_tool_budget"
)

// ReportMetadata carries non-content facts about how a report was produced.
type ReportMetadata struct {
	Termination    TerminationReason `json:"termination"`
	Truncated      bool              `json:"truncated"`
	Iterations     int               `json:"iterations"`
	ToolCallsTotal int               `json:"tool_calls_total"`
}

// Report is the final cited long-form output of an orchestration run.
type Report struct {
	Markdown string         `json:"markdown"`
	Sources  []Source       `json:"sources"`
	Metadata ReportMetadata `json:"metadata"`
}
