package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/parley/pkg/domain"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	Prompt   string
	MaxInput int

	mu        sync.Mutex // serializes writes to Writer
	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithPrompt overrides the "> " prompt.
func WithPrompt(prompt string) TextHandlerOption {
	return func(h *TextHandler) {
		h.Prompt = prompt
	}
}

// WithMaxInputSize sets the input size limit in bytes.
func WithMaxInputSize(n int) TextHandlerOption {
	return func(h *TextHandler) {
		h.MaxInput = n
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		Prompt: "> ",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honour context cancellation.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')

		// If we got text (even with EOF), send it
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}

		if err != nil {
			if err == io.EOF {
				close(h.inputChan)
				return
			}
			h.inputChan <- inputResult{err: err}
			// Backoff for non-fatal errors to prevent CPU spikes on persistent failure
			time.Sleep(50 * time.Millisecond)
		}
	}
}

func (h *TextHandler) write(format string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprintf(h.Writer, format, args...)
}

// Output prints the outcome message, rendered if a Renderer is set.
func (h *TextHandler) Output(ctx context.Context, out domain.Outcome) error {
	msg := out.Message
	if msg == "" {
		return nil
	}
	if h.Renderer != nil {
		if rendered, err := h.Renderer(msg); err == nil {
			msg = rendered
		}
	}
	h.write("%s\n", strings.TrimSpace(msg))
	return nil
}

// SystemOutput prints an out-of-band message.
func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	h.write("\n[System] %s\n", msg)
	return nil
}

// Input prompts and reads one line. Empty lines are skipped.
func (h *TextHandler) Input(ctx context.Context) (domain.Utterance, error) {
	// Ensure the pump is running
	h.initPump()

	for {
		// Only show prompt if context is not yet done
		select {
		case <-ctx.Done():
			return domain.Utterance{}, ctx.Err()
		default:
			h.write("%s", h.Prompt)
		}

		select {
		case <-ctx.Done():
			// Important: don't print anything here, just exit silently
			return domain.Utterance{}, ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return domain.Utterance{}, io.EOF
			}
			if res.err != nil {
				return domain.Utterance{}, res.err
			}
			text := strings.TrimSpace(res.text)
			if text == "" {
				continue
			}

			// Sanitize Input (Limit + Control Chars)
			clean, err := SanitizeInputWithLimit(text, h.MaxInput)
			if err != nil {
				// User Feedback: Prompt retry
				h.write("Error: %v. Please try again.\n", err)
				continue
			}
			return domain.NewUtterance(clean), nil
		}
	}
}
