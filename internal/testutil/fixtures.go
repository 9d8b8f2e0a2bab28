// Package testutil provides deterministic test doubles shared across
// package test suites: a YAML-declared scripted backend fixture format
// (mirroring the teacher's internal/testharness golden-file convention, but
// for scripting model replies instead of comparing output) plus a generic
// ScriptedBackend that plays a Fixture back as a modeladapter.Backend.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jordangeorgiev/open-deep-research/internal/modeladapter"
	"github.com/jordangeorgiev/open-deep-research/internal/research"
)

// ToolCallFixture is one tool call a scripted turn emits.
type ToolCallFixture struct {
	Name      string         `yaml:"name"`
	Arguments map[string]any `yaml:"arguments"`
}

// TurnFixture is one scripted CompleteWithTools reply.
type TurnFixture struct {
	Text  string            `yaml:"text"`
	Calls []ToolCallFixture `yaml:"calls"`
}

// Fixture is a declarative script for a ScriptedBackend: an ordered queue
// of tool-calling turns, an ordered queue of structured-output documents,
// and an ordered queue of free-form completions. Each queue is consumed
// independently, in call order, by the operation it backs.
type Fixture struct {
	NativeTools      bool          `yaml:"native_tools"`
	NativeStructured bool          `yaml:"native_structured"`
	Turns            []TurnFixture `yaml:"turns"`
	Structured       []string      `yaml:"structured"`
	Completions      []string      `yaml:"completions"`
}

// ParseFixture decodes a YAML-encoded Fixture.
func ParseFixture(doc []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(doc, &f); err != nil {
		return nil, fmt.Errorf("testutil: parse fixture: %w", err)
	}
	return &f, nil
}

// ScriptedBackend plays a Fixture back as a modeladapter.Backend,
// modeladapter.ToolCaller, and modeladapter.StructuredCaller. Each queue
// wraps rather than errors once exhausted, repeating its final entry, so a
// test need only script the turns that matter and let any trailing
// "research_complete" style turn stand in for the rest.
type ScriptedBackend struct {
	name    string
	fixture *Fixture

	turn       int
	structured int
	completion int
}

// NewScriptedBackend constructs a ScriptedBackend named name, driven by fixture.
func NewScriptedBackend(name string, fixture *Fixture) *ScriptedBackend {
	return &ScriptedBackend{name: name, fixture: fixture}
}

func (b *ScriptedBackend) Name() string { return b.name }

func (b *ScriptedBackend) Capabilities() modeladapter.Capabilities {
	return modeladapter.Capabilities{
		NativeTools:      b.fixture.NativeTools,
		NativeStructured: b.fixture.NativeStructured,
	}
}

func (b *ScriptedBackend) Complete(ctx context.Context, system string, messages []modeladapter.Message, params modeladapter.Params) (string, error) {
	if len(b.fixture.Completions) == 0 {
		return "", nil
	}
	text := take(b.fixture.Completions, &b.completion)
	return text, nil
}

func (b *ScriptedBackend) CompleteWithTools(ctx context.Context, system string, messages []modeladapter.Message, tools []modeladapter.Tool, params modeladapter.Params) (string, []research.ToolCall, error) {
	if len(b.fixture.Turns) == 0 {
		return "", nil, nil
	}
	turn := takeTurn(b.fixture.Turns, &b.turn)

	calls := make([]research.ToolCall, 0, len(turn.Calls))
	for _, c := range turn.Calls {
		calls = append(calls, research.ToolCall{Name: c.Name, Arguments: c.Arguments})
	}
	return turn.Text, calls, nil
}

func (b *ScriptedBackend) CompleteStructured(ctx context.Context, system string, messages []modeladapter.Message, schema json.RawMessage, params modeladapter.Params) (json.RawMessage, error) {
	if len(b.fixture.Structured) == 0 {
		return json.RawMessage(`{}`), nil
	}
	doc := take(b.fixture.Structured, &b.structured)
	return json.RawMessage(doc), nil
}

func take(queue []string, idx *int) string {
	i := *idx
	if i >= len(queue) {
		i = len(queue) - 1
	}
	*idx++
	return queue[i]
}

func takeTurn(queue []TurnFixture, idx *int) TurnFixture {
	i := *idx
	if i >= len(queue) {
		i = len(queue) - 1
	}
	*idx++
	return queue[i]
}
