package modeladapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCapabilitiesKnownMissingFamily(t *testing.T) {
	assert.Equal(t, Capabilities{NativeStructured: false, NativeTools: false}, DetectCapabilities("llama-3.1-70b"))
	assert.Equal(t, Capabilities{NativeStructured: false, NativeTools: false}, DetectCapabilities("Mistral-Large"))
	assert.Equal(t, Capabilities{NativeStructured: false, NativeTools: false}, DetectCapabilities("local-7b-q4"))
}

func TestDetectCapabilitiesMixedFamily(t *testing.T) {
	assert.Equal(t, Capabilities{NativeStructured: true, NativeTools: false}, DetectCapabilities("gemini-1.5-pro"))
}

func TestDetectCapabilitiesDefaultsToFullyNative(t *testing.T) {
	assert.Equal(t, Capabilities{NativeStructured: true, NativeTools: true}, DetectCapabilities("claude-sonnet-4-20250514"))
	assert.Equal(t, Capabilities{NativeStructured: true, NativeTools: true}, DetectCapabilities("gpt-4o"))
}
