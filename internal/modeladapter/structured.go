package modeladapter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// jsonModeInstruction is appended as a system instruction when a backend
// lacks native structured output, per spec §4.1 step 1: require a single
// JSON document matching schema, no prose or fencing.
func jsonModeInstruction(schema json.RawMessage) string {
	return fmt.Sprintf(
		"Respond with a single JSON document matching this schema, and nothing else: no prose, no markdown code fences.\nSchema:\n%s",
		string(schema),
	)
}

// retryInstruction is appended when a prior JSON-mode attempt failed
// validation, carrying the prior output and the validator's error so the
// model can self-correct.
func retryInstruction(prior string, validationErr error) string {
	return fmt.Sprintf(
		"Your previous response did not validate against the schema.\nPrevious response:\n%s\nValidation error: %v\nRespond again with a single corrected JSON document matching the schema, and nothing else.",
		prior, validationErr,
	)
}

// extractJSON locates the first '{' or '[' in text and extracts the balanced
// JSON document starting there, stripping a surrounding markdown fence if
// present. It does not attempt to parse the document — only to find its
// bounds — so callers can json.Unmarshal or schema-validate the result.
func extractJSON(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	start := -1
	var open, close byte
	for i, r := range trimmed {
		if r == '{' || r == '[' {
			start = i
			open = byte(r)
			if r == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start == -1 {
		return "", fmt.Errorf("no JSON document found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(trimmed); i++ {
		c := trimmed[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return trimmed[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unbalanced JSON document in response")
}

// validateStructured compiles schema and validates doc against it.
func validateStructured(schema json.RawMessage, doc string) (any, error) {
	compiled, err := jsonschema.CompileString("structured-output.json", string(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	var decoded any
	if err := json.Unmarshal([]byte(doc), &decoded); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	if err := compiled.Validate(decoded); err != nil {
		return nil, err
	}

	return decoded, nil
}
