package modeladapter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jordangeorgiev/open-deep-research/internal/react"
	"github.com/jordangeorgiev/open-deep-research/internal/research"
	"github.com/jordangeorgiev/open-deep-research/internal/transport"
)

// Options configures an Adapter.
type Options struct {
	// MaxStructuredRetries bounds re-prompt attempts on schema validation
	// failure for backends without native structured output. Default 3.
	MaxStructuredRetries int

	// TransportRetry configures retry for transport-level failures
	// (ModelUnavailable). Default transport.DefaultConfig().
	TransportRetry transport.Config

	// Logger receives adapter diagnostics.
	Logger *slog.Logger

	// Metrics receives retry/tool-call counters, if non-nil.
	Metrics *research.Metrics
}

func (o Options) withDefaults() Options {
	if o.MaxStructuredRetries <= 0 {
		o.MaxStructuredRetries = 3
	}
	if o.TransportRetry.MaxAttempts <= 0 {
		o.TransportRetry = transport.DefaultConfig()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Adapter is the uniform callable surface over a single LLM backend,
// presenting the three operations from spec §4.1 regardless of whether the
// backend natively supports structured output or tool calling.
type Adapter struct {
	backend Backend
	codec   *react.Codec
	opts    Options
}

// New wraps backend in an Adapter.
func New(backend Backend, opts Options) *Adapter {
	return &Adapter{backend: backend, codec: react.NewCodec(), opts: opts.withDefaults()}
}

// Name returns the underlying backend's name.
func (a *Adapter) Name() string { return a.backend.Name() }

// Complete performs free-form generation, retrying transport failures.
func (a *Adapter) Complete(ctx context.Context, system string, messages []Message, params Params) (string, error) {
	text, result := transport.DoWithValue(ctx, a.opts.TransportRetry, func() (string, error) {
		out, err := a.backend.Complete(ctx, system, messages, params)
		if err != nil {
			return "", transportFailure(err)
		}
		return out, nil
	})
	if result.Err != nil {
		a.recordRetry(result.Attempts)
		return "", &research.ModelUnavailableError{Cause: result.Err}
	}
	return text, nil
}

// CompleteStructured returns a value conforming to schema, using the
// backend's native structured-output mode when available, otherwise driving
// a JSON-mode prompt protocol with validator-feedback retries.
func (a *Adapter) CompleteStructured(ctx context.Context, system string, messages []Message, schema json.RawMessage, params Params) (json.RawMessage, error) {
	caps := a.backend.Capabilities()

	if caps.NativeStructured {
		if sc, ok := a.backend.(StructuredCaller); ok {
			doc, result := transport.DoWithValue(ctx, a.opts.TransportRetry, func() (json.RawMessage, error) {
				out, err := sc.CompleteStructured(ctx, system, messages, schema, params)
				if err != nil {
					return nil, transportFailure(err)
				}
				return out, nil
			})
			if result.Err != nil {
				a.recordRetry(result.Attempts)
				return nil, &research.ModelUnavailableError{Cause: result.Err}
			}
			return doc, nil
		}
	}

	return a.completeStructuredViaJSONMode(ctx, system, messages, schema, params)
}

func (a *Adapter) completeStructuredViaJSONMode(ctx context.Context, system string, messages []Message, schema json.RawMessage, params Params) (json.RawMessage, error) {
	convo := append([]Message(nil), messages...)
	instruction := jsonModeInstruction(schema)
	sys := system
	if sys != "" {
		sys = sys + "\n\n" + instruction
	} else {
		sys = instruction
	}

	var lastErr error
	for attempt := 1; attempt <= a.opts.MaxStructuredRetries; attempt++ {
		text, err := a.Complete(ctx, sys, convo, params)
		if err != nil {
			return nil, err
		}

		doc, extractErr := extractJSON(text)
		if extractErr != nil {
			lastErr = extractErr
			convo = append(convo, Message{Role: "assistant", Content: text}, Message{Role: "user", Content: retryInstruction(text, extractErr)})
			continue
		}

		decoded, valErr := validateStructured(schema, doc)
		if valErr != nil {
			lastErr = valErr
			convo = append(convo, Message{Role: "assistant", Content: text}, Message{Role: "user", Content: retryInstruction(doc, valErr)})
			continue
		}

		out, marshalErr := json.Marshal(decoded)
		if marshalErr != nil {
			return nil, &research.StructuredOutputError{Attempts: attempt, LastError: marshalErr}
		}
		return out, nil
	}

	if a.opts.MaxStructuredRetries > 1 {
		a.opts.Metrics.RecordRetry(a.backend.Name(), research.KindStructuredOutput)
	}
	return nil, &research.StructuredOutputError{Attempts: a.opts.MaxStructuredRetries, LastError: lastErr}
}

// CompleteWithTools returns any tool calls the model emits (native tool
// calling when available, decoded from ReAct text otherwise), plus any
// narrative text, after applying parameter normalization per tool.
func (a *Adapter) CompleteWithTools(ctx context.Context, system string, messages []Message, tools []Tool, params Params) (string, []research.ToolCall, error) {
	caps := a.backend.Capabilities()

	if caps.NativeTools {
		if tc, ok := a.backend.(ToolCaller); ok {
			text, calls, err := a.completeWithToolsNative(ctx, system, messages, tools, params, tc)
			if err != nil {
				return "", nil, err
			}
			normalized, errs := normalizeToolCalls(tools, calls)
			return text, normalized, firstErr(errs)
		}
	}

	return a.completeWithToolsReAct(ctx, system, messages, tools, params)
}

func (a *Adapter) completeWithToolsNative(ctx context.Context, system string, messages []Message, tools []Tool, params Params, tc ToolCaller) (string, []research.ToolCall, error) {
	text, result := transport.DoWithValue(ctx, a.opts.TransportRetry, func() (toolCallResult, error) {
		t, calls, err := tc.CompleteWithTools(ctx, system, messages, tools, params)
		if err != nil {
			return toolCallResult{}, transportFailure(err)
		}
		return toolCallResult{text: t, calls: calls}, nil
	})
	if result.Err != nil {
		a.recordRetry(result.Attempts)
		return "", nil, &research.ModelUnavailableError{Cause: result.Err}
	}
	return text.text, text.calls, nil
}

type toolCallResult struct {
	text  string
	calls []research.ToolCall
}

// reactParseRetries bounds how many times completeWithToolsReAct nudges a
// non-native-tools backend to reply in the required grammar before giving
// up on this step, per spec §4.4 default of 2.
const reactParseRetries = 2

func (a *Adapter) completeWithToolsReAct(ctx context.Context, system string, messages []Message, tools []Tool, params Params) (string, []research.ToolCall, error) {
	specs := make([]react.ToolSpec, 0, len(tools))
	for _, t := range tools {
		specs = append(specs, react.ToolSpec{Name: t.Name, Description: t.Description, Schema: string(t.Schema)})
	}
	preamble := a.codec.Preamble(specs)

	sys := system
	if sys != "" {
		sys = sys + "\n\n" + preamble
	} else {
		sys = preamble
	}

	convo := append([]Message(nil), messages...)

	for attempt := 0; attempt <= reactParseRetries; attempt++ {
		reply, err := a.Complete(ctx, sys, convo, params)
		if err != nil {
			return "", nil, err
		}

		decoded, decErr := a.codec.Decode(reply)
		if decErr != nil {
			if attempt >= reactParseRetries {
				// End the step with no tool calls, per spec §4.4.
				return reply, nil, nil
			}
			convo = append(convo,
				Message{Role: "assistant", Content: reply},
				Message{Role: "observation", Content: react.RetryObservation},
			)
			continue
		}

		if decoded.IsFinal {
			return decoded.FinalAnswer, nil, nil
		}

		call := *decoded.Call
		call.ID = uuid.NewString()
		normalized, errs := normalizeToolCalls(tools, []research.ToolCall{call})
		return reply, normalized, firstErr(errs)
	}

	return "", nil, nil
}

func (a *Adapter) recordRetry(attempts int) {
	if a.opts.Metrics == nil || attempts <= 1 {
		return
	}
	a.opts.Metrics.RecordRetry(a.backend.Name(), research.KindTransport)
}

// transportFailure passes a backend error through for transport.Do to retry.
// Context cancellation is already detected by Do itself before each attempt,
// so no error here needs to be marked transport.Permanent.
func transportFailure(err error) error {
	return err
}

func firstErr(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}
