package modeladapter

import (
	"encoding/json"

	"github.com/jordangeorgiev/open-deep-research/internal/research"
)

// toolSchemaShape is the minimal subset of a JSON-schema-like tool parameter
// description needed to detect missing required arguments after normalization.
type toolSchemaShape struct {
	Required []string `json:"required"`
}

// normalizeArguments reconciles argument-name drift (aliases declared on the
// tool) against canonical parameter names. It is idempotent: a key already
// at its canonical name has no alias rule that fires a second time, so
// normalize(normalize(x)) == normalize(x) for any argument map.
func normalizeArguments(tool Tool, args map[string]any) map[string]any {
	if len(args) == 0 {
		return args
	}

	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}

	for _, rule := range tool.Aliases {
		v, ok := out[rule.Alias]
		if !ok {
			continue
		}
		if _, exists := out[rule.Canonical]; !exists {
			if rule.WrapList {
				if _, isSlice := v.([]any); !isSlice {
					v = []any{v}
				}
			}
			out[rule.Canonical] = v
		}
		if rule.Alias != rule.Canonical {
			delete(out, rule.Alias)
		}
	}

	return out
}

// normalizeToolCall applies normalizeArguments to a single tool call and
// checks that every required parameter (per the tool's schema) is present
// afterward. A missing required parameter is reported as a parse error, not
// a crash, per spec: the caller surfaces it as an observation.
func normalizeToolCall(tool Tool, call research.ToolCall) (research.ToolCall, error) {
	call.Arguments = normalizeArguments(tool, call.Arguments)

	var shape toolSchemaShape
	if len(tool.Schema) > 0 {
		_ = json.Unmarshal(tool.Schema, &shape)
	}

	var missing []string
	for _, req := range shape.Required {
		if _, ok := call.Arguments[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return call, &research.ToolParseError{Cause: missingParamsError{tool: tool.Name, params: missing}}
	}

	return call, nil
}

type missingParamsError struct {
	tool   string
	params []string
}

func (e missingParamsError) Error() string {
	msg := "tool " + e.tool + " missing required parameters:"
	for i, p := range e.params {
		if i > 0 {
			msg += ","
		}
		msg += " " + p
	}
	return msg
}

func findTool(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// normalizeToolCalls normalizes every call in calls against its matching
// tool declaration. Calls naming an unknown tool pass through unmodified;
// the dispatcher will report "tool not found" when it tries to invoke them.
func normalizeToolCalls(tools []Tool, calls []research.ToolCall) ([]research.ToolCall, []error) {
	out := make([]research.ToolCall, 0, len(calls))
	var errs []error
	for _, call := range calls {
		tool, ok := findTool(tools, call.Name)
		if !ok {
			out = append(out, call)
			continue
		}
		normalized, err := normalizeToolCall(tool, call)
		out = append(out, normalized)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return out, errs
}
