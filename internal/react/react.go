// Package react implements the ReAct text protocol: a formal grammar for
// emulating tool calling on LLM backends that lack native tool-call support.
// A Codec is a pure text encoder/decoder, independent of any LLM, so it can
// be tested as a grammar in isolation (see spec §9).
package react

import (
	"fmt"
	"strings"

	"github.com/jordangeorgiev/open-deep-research/internal/research"
)

// ToolSpec describes one tool for the ReAct preamble, independent of any
// particular model-adapter tool representation to avoid an import cycle.
type ToolSpec struct {
	Name        string
	Description string
	Schema      string // rendered JSON schema text
}

// Codec encodes the ReAct system preamble and decodes model replies back
// into tool calls or a final answer.
type Codec struct{}

// NewCodec returns a Codec. It carries no state: encoding and decoding are
// pure functions of their inputs.
func NewCodec() *Codec { return &Codec{} }

// Preamble renders the system instruction listing every registered tool and
// mandating the Thought/Action/Action Input or Thought/Final Answer grammar.
func (c *Codec) Preamble(tools []ToolSpec) string {
	var b strings.Builder
	b.WriteString("You can use the following tools. To use one, reply in exactly this format:\n\n")
	b.WriteString("Thought: <one-paragraph reasoning>\n")
	b.WriteString("Action: <tool_name>\n")
	b.WriteString("Action Input: <single-line JSON object matching the tool schema>\n\n")
	b.WriteString("When you are done and need no more tools, reply instead with:\n\n")
	b.WriteString("Thought: <...>\n")
	b.WriteString("Final Answer: <free text>\n\n")
	b.WriteString("Available tools:\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "- %s: %s\n  parameters: %s\n", t.Name, t.Description, t.Schema)
	}
	return b.String()
}

// Decoded is the result of decoding one model reply.
type Decoded struct {
	// Call is set when the reply requested a tool invocation.
	Call *research.ToolCall
	// FinalAnswer is set when the reply signaled completion.
	FinalAnswer string
	// IsFinal reports whether FinalAnswer (rather than Call) was produced.
	IsFinal bool
}

// Decode scans reply for the Action:/Action Input: pair or Final Answer:,
// per the grammar mandated by Preamble. Malformed replies produce a
// *research.ToolParseError; callers convert this into an observation and a
// bounded retry, never a crash.
func (c *Codec) Decode(reply string) (*Decoded, error) {
	if idx := strings.Index(reply, "Final Answer:"); idx >= 0 {
		answer := strings.TrimSpace(reply[idx+len("Final Answer:"):])
		return &Decoded{FinalAnswer: answer, IsFinal: true}, nil
	}

	actionIdx := strings.Index(reply, "Action:")
	inputIdx := strings.Index(reply, "Action Input:")
	if actionIdx == -1 || inputIdx == -1 || inputIdx < actionIdx {
		return nil, &research.ToolParseError{Cause: fmt.Errorf("reply contains neither a valid Action/Action Input pair nor a Final Answer")}
	}

	nameSection := reply[actionIdx+len("Action:") : inputIdx]
	name := strings.TrimSpace(strings.SplitN(nameSection, "\n", 2)[0])
	if name == "" {
		return nil, &research.ToolParseError{Cause: fmt.Errorf("empty action name")}
	}

	argsText := reply[inputIdx+len("Action Input:"):]
	argsJSON, err := extractBalancedJSON(argsText)
	if err != nil {
		return nil, &research.ToolParseError{Cause: fmt.Errorf("action input: %w", err)}
	}

	args, err := parseArguments(argsJSON)
	if err != nil {
		return nil, &research.ToolParseError{Cause: fmt.Errorf("action input: %w", err)}
	}

	return &Decoded{Call: &research.ToolCall{Name: name, Arguments: args}}, nil
}

// RetryObservation is the message appended to the conversation when a reply
// fails to parse, nudging the model to reply again in the required format.
const RetryObservation = "your last reply was not parseable; reply again using the required format"
