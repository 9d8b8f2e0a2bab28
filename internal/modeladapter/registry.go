package modeladapter

import "strings"

// knownMissing lists model-name prefixes for backend families known to lack
// native structured output and/or native tool calling — predominantly local
// inference families fronted by a bare completion endpoint. Any model not
// matched here is assumed "native" for both capabilities, per spec: the
// default assumption is native unless the family is explicitly known-missing.
var knownMissing = map[string]Capabilities{
	"llama":    {NativeStructured: false, NativeTools: false},
	"mistral":  {NativeStructured: false, NativeTools: false},
	"ollama":   {NativeStructured: false, NativeTools: false},
	"local-":   {NativeStructured: false, NativeTools: false},
	"gemini-1": {NativeStructured: true, NativeTools: false},
}

// DetectCapabilities returns the capability record for a model name by
// longest-matching known-missing prefix, defaulting to fully native when no
// family matches.
func DetectCapabilities(model string) Capabilities {
	lower := strings.ToLower(model)

	var best string
	var bestCaps Capabilities
	for prefix, caps := range knownMissing {
		if strings.HasPrefix(lower, prefix) && len(prefix) > len(best) {
			best = prefix
			bestCaps = caps
		}
	}
	if best != "" {
		return bestCaps
	}
	return Capabilities{NativeStructured: true, NativeTools: true}
}
