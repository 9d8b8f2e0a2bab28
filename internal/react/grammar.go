package react

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractBalancedJSON extracts the JSON object following "Action Input:",
// greedily through the matching closing brace, per spec §4.4.
func extractBalancedJSON(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	// A reply may continue after the JSON object with further lines (e.g.
	// a trailing Observation from an echoed transcript); only the first line
	// is meaningful once the object closes.
	start := strings.IndexByte(trimmed, '{')
	if start == -1 {
		return "", fmt.Errorf("no JSON object found")
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return trimmed[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unbalanced JSON object")
}

// parseArguments decodes a JSON object into a string-keyed argument map.
func parseArguments(raw string) (map[string]any, error) {
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return args, nil
}

// Encode renders a tool call back into the single-line Action Input JSON
// form. Used by tests to round-trip Decode(Encode(x)) == x.
func Encode(name string, args map[string]any) (string, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Thought: calling %s\nAction: %s\nAction Input: %s", name, name, string(payload)), nil
}
