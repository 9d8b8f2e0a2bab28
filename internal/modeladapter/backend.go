// Package modeladapter implements the model capability adaptation layer: a
// uniform interface over LLM backends that differ in whether they natively
// support structured (schema-constrained) output and tool calling. Backends
// lacking one or both capabilities are driven through a JSON-mode prompt
// protocol and the ReAct text protocol (internal/react) respectively.
package modeladapter

import (
	"context"
	"encoding/json"

	"github.com/jordangeorgiev/open-deep-research/internal/research"
)

// Message is one turn in a completion request, generalized across backends.
type Message struct {
	Role    string
	Content string
}

// AliasRule renames a single argument key produced by a weaker backend to
// its canonical name before dispatch. Rules are applied in order; the first
// matching alias wins. WrapList handles singular/plural drift: when set and
// the aliased value is not already a slice, it is wrapped in a single-element
// slice before being stored under Canonical.
type AliasRule struct {
	Alias     string
	Canonical string
	WrapList  bool
}

// Tool is a declaration passed to CompleteWithTools: its name, description,
// and JSON-schema-like parameter shape, plus the normalization rules applied
// to arguments returned by weaker backends.
type Tool struct {
	Name        string
	Description string
	Schema      json.RawMessage
	Aliases     []AliasRule
}

// Params carries generation parameters common to every backend call.
type Params struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Capabilities records whether a backend natively supports schema-constrained
// output and native tool calling. The default assumption for an unknown
// family is "native" for both; only families on the known-missing list are
// marked otherwise (see DetectCapabilities).
type Capabilities struct {
	NativeStructured bool
	NativeTools      bool
}

// Backend is the minimal interface every LLM backend must implement: free
// form text completion, a name, and its capability record.
type Backend interface {
	Name() string
	Capabilities() Capabilities
	Complete(ctx context.Context, system string, messages []Message, params Params) (string, error)
}

// ToolCaller is implemented by backends with native tool-calling support.
// Adapter only calls this when Capabilities().NativeTools is true.
type ToolCaller interface {
	CompleteWithTools(ctx context.Context, system string, messages []Message, tools []Tool, params Params) (text string, calls []research.ToolCall, err error)
}

// StructuredCaller is implemented by backends with native schema-constrained
// output. Adapter only calls this when Capabilities().NativeStructured is true.
type StructuredCaller interface {
	CompleteStructured(ctx context.Context, system string, messages []Message, schema json.RawMessage, params Params) (json.RawMessage, error)
}
