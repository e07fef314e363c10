package tui

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner_PlainWriter(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)

	out := buf.String()
	assert.Contains(t, out, `| '_ \ / _' |`)
	assert.NotContains(t, out, "\x1b[", "a buffer is not a terminal, so no color codes")
	assert.Equal(t, len(bannerLines)+2, strings.Count(out, "\n"))
}

func TestStyledRenderer_NoTTY(t *testing.T) {
	render, err := NewStyledRenderer("notty")
	require.NoError(t, err)

	out, err := render("**Which website** should I open?")
	require.NoError(t, err)
	assert.Contains(t, out, "Which website")
	assert.Contains(t, out, "should I open?")
}

func TestPlainRenderer(t *testing.T) {
	out, err := PlainRenderer("*as is*")
	require.NoError(t, err)
	assert.Equal(t, "*as is*", out)
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(nil))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f))
}
