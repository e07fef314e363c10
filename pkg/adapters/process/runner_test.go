package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
}

func TestRunner_Run(t *testing.T) {
	skipOnWindows(t)

	runner := NewRunner()
	runner.Register("hello", "sh", "-c", "echo hello")

	t.Run("Executes Registered Command", func(t *testing.T) {
		result, err := runner.Run(context.Background(), "hello", nil)
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Equal(t, "hello", result.Output)
	})

	t.Run("Fails For Unregistered Command", func(t *testing.T) {
		result, err := runner.Run(context.Background(), "hacker_script", nil)
		assert.ErrorIs(t, err, ErrNotRegistered)
		assert.True(t, result.IsError)
	})

	t.Run("Passes Arguments via Env Vars", func(t *testing.T) {
		runner.Register("echo_env", "sh", "-c", "echo $PARLEY_ARG_MSG")

		result, err := runner.Run(context.Background(), "echo_env", map[string]any{"msg": "; rm -rf /"})
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Equal(t, "; rm -rf /", result.Output)
	})

	t.Run("Parses JSON Output", func(t *testing.T) {
		runner.Register("json", "sh", "-c", `echo '{"status":"on"}'`)

		result, err := runner.Run(context.Background(), "json", nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"status": "on"}, result.Output)
	})

	t.Run("Reports Exit Code", func(t *testing.T) {
		runner.Register("fail", "sh", "-c", "echo nope >&2; exit 3")

		result, err := runner.Run(context.Background(), "fail", nil)
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Equal(t, 3, result.ExitCode)
		assert.Contains(t, result.Error, "nope")
	})
}

func TestLoadTools(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tools:
  - name: wifi_on
    command: sh
    args: ["-c", "echo $LABEL"]
    env:
      LABEL: radio-on
    description: Turn the wifi radio on
`), 0o644))

	tools, err := LoadTools(path)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "Turn the wifi radio on", tools["wifi_on"].Description)

	runner := NewRunner(WithRegistry(tools), WithBaseDir(dir))
	assert.Equal(t, []string{"wifi_on"}, runner.Tools())
	assert.True(t, runner.Has("wifi_on"))

	result, err := runner.Run(context.Background(), "wifi_on", nil)
	require.NoError(t, err)
	assert.Equal(t, "radio-on", result.Output)
}

func TestLoadTools_MissingFileIsEmpty(t *testing.T) {
	tools, err := LoadTools(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, tools)
}

func TestLoadTools_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.JSON")
	require.NoError(t, os.WriteFile(path, []byte(`{"tools":[{"name":"shutdown","command":"systemctl","args":["poweroff"]}]}`), 0o644))

	tools, err := LoadTools(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"poweroff"}, tools["shutdown"].Args)
}

func TestLoadTools_InvalidEntries(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing name", "tools:\n  - command: echo\n"},
		{"missing command", "tools:\n  - name: wifi_on\n"},
		{"duplicate name", "tools:\n  - name: wifi_on\n    command: echo\n  - name: wifi_on\n    command: echo\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tools.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.doc), 0o644))
			_, err := LoadTools(path)
			assert.ErrorIs(t, err, ErrInvalidTool)
		})
	}

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tools.yaml")
		require.NoError(t, os.WriteFile(path, []byte("tools: [unclosed"), 0o644))
		_, err := LoadTools(path)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidTool)
	})
}
