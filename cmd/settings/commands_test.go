package settings

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	assert.Equal(t, int64(587), ParseValue("587", false))
	assert.Equal(t, 1.5, ParseValue("1.5", false))
	assert.Equal(t, true, ParseValue("true", false))
	assert.Nil(t, ParseValue("null", false))
	assert.Equal(t, "smtp", ParseValue("smtp", false))
	assert.Equal(t, "smtp", ParseValue(`"smtp"`, false))
	assert.Equal(t, "1 2", ParseValue("1 2", false))
	assert.Equal(t, "587", ParseValue("587", true))
	assert.Equal(t,
		map[string]any{"a": []any{int64(1), "x"}},
		ParseValue(`{"a":[1,"x"]}`, false))
}

func TestReadImport(t *testing.T) {
	values, err := readImport(strings.NewReader(`{"mail":{"port":25}}`), "-")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"mail": map[string]any{"port": int64(25)}}, values)

	_, err = readImport(strings.NewReader(`[1,2]`), "-")
	assert.Error(t, err)

	_, err = readImport(nil, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// run executes the settings command group against a json file
func run(t *testing.T, path string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	SettingsCommands.SetOut(&out)
	SettingsCommands.SetArgs(append(args, "--store", "json", "--path", path))
	require.NoError(t, SettingsCommands.Execute())
	return out.String()
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	run(t, path, "set", "mail.driver", "smtp")
	run(t, path, "set", "mail.port", "587")
	assert.Equal(t, "smtp\n", run(t, path, "get", "mail.driver"))
	assert.Equal(t, "587\n", run(t, path, "get", "mail.port"))

	importFile := filepath.Join(dir, "import.json")
	require.NoError(t, os.WriteFile(importFile, []byte(`{"mail":{"from":"a@b.c"},"debug":true}`), 0o644))
	run(t, path, "import", importFile)

	assert.Equal(t, "debug\nmail.driver\nmail.from\nmail.port\n", run(t, path, "keys"))

	run(t, path, "forget", "mail.driver", "mail.from", "mail.port")

	var all map[string]any
	require.NoError(t, json.Unmarshal([]byte(run(t, path, "all")), &all))
	assert.Equal(t, map[string]any{"debug": true}, all)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "mail")
}
