package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScope(t *testing.T) {
	scope, err := ParseScope([]string{"tenant=acme", " user = 42 ", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"tenant": "acme", "user": "42", "empty": ""}, scope)

	_, err = ParseScope([]string{"missing-separator"})
	assert.Error(t, err)
	_, err = ParseScope([]string{"=value"})
	assert.Error(t, err)
}

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
	assert.Equal(t, "short text", WrapString("  short   text "))
}
