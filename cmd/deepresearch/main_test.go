package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendFactoryRoutesByModelPrefix(t *testing.T) {
	for _, key := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY"} {
		t.Setenv(key, "")
	}

	factory := backendFactory()

	_, err := factory("claude-sonnet-4-20250514")
	require.Error(t, err, "anthropic backend requires an API key")
	assert.Contains(t, err.Error(), "anthropic")

	_, err = factory("gemini-1.5-pro")
	require.Error(t, err, "gemini backend requires an API key")
	assert.Contains(t, err.Error(), "gemini")

	_, err = factory("gpt-4o-mini")
	require.Error(t, err, "openai backend requires an API key")
	assert.Contains(t, err.Error(), "openai")
}

func TestBackendFactoryUsesEnvironmentCredentials(t *testing.T) {
	os.Setenv("ANTHROPIC_API_KEY", "test-key")
	defer os.Unsetenv("ANTHROPIC_API_KEY")

	backend, err := backendFactory()("claude-sonnet-4-20250514")
	require.NoError(t, err)
	assert.NotNil(t, backend)
}
