package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_Output(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), outBuf, WithTextHandlerRenderer(func(s string) (string, error) {
		return "Rendered: " + s, nil
	}))

	require.NoError(t, handler.Output(context.Background(), domain.Outcome{Message: "Hello World"}))
	assert.Contains(t, outBuf.String(), "Rendered: Hello World")

	outBuf.Reset()
	require.NoError(t, handler.Output(context.Background(), domain.Outcome{}))
	assert.Empty(t, outBuf.String(), "empty messages print nothing")
}

func TestTextHandler_Input(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("  my user input  \n"), outBuf, WithPrompt("? "))

	utt, err := handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my user input", utt.Text)
	assert.Contains(t, outBuf.String(), "? ")

	_, err = handler.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextHandler_RejectsOversizedInput(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("way too long\nok\n"), outBuf, WithMaxInputSize(5))

	utt, err := handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", utt.Text)
	assert.Contains(t, outBuf.String(), "Please try again")
}

func TestTextHandler_InputHonoursContext(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	handler := NewTextHandler(pr, &bytes.Buffer{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := handler.Input(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
