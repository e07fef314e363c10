package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// JSONInput is one JSON-Lines request. A bare JSON string or plain text line
// is accepted as {"text": ...}.
type JSONInput struct {
	Text     string          `json:"text"`
	Entities map[string]any  `json:"entities,omitempty"`
	Signals  map[string]bool `json:"signals,omitempty"`
}

// JSONOutput is one JSON-Lines response.
type JSONOutput struct {
	Type    string          `json:"type"` // "outcome", "system" or "error"
	Outcome *domain.Outcome `json:"outcome,omitempty"`
	Message string          `json:"message,omitempty"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Encoder  *json.Encoder
	MaxInput int

	mu sync.Mutex
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) encode(v JSONOutput) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(v)
}

// Output emits the outcome as a single JSON line.
func (h *JSONHandler) Output(ctx context.Context, out domain.Outcome) error {
	return h.encode(JSONOutput{Type: "outcome", Outcome: &out})
}

// SystemOutput emits an out-of-band message.
func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.encode(JSONOutput{Type: "system", Message: msg})
}

// Input reads one request line. Invalid lines are reported and skipped.
func (h *JSONHandler) Input(ctx context.Context) (domain.Utterance, error) {
	for {
		line, err := h.Reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			if err != nil {
				return domain.Utterance{}, err
			}
			continue
		}

		in := parseJSONInput(line)
		clean, serr := SanitizeInputWithLimit(in.Text, h.MaxInput)
		if serr != nil {
			if werr := h.encode(JSONOutput{Type: "error", Message: serr.Error()}); werr != nil {
				return domain.Utterance{}, werr
			}
			if err != nil {
				return domain.Utterance{}, err
			}
			continue
		}
		return domain.Utterance{
			Text: clean,
			NLU:  domain.NLUContext{Entities: in.Entities, Signals: in.Signals},
		}, nil
	}
}

func parseJSONInput(line string) JSONInput {
	var in JSONInput
	if strings.HasPrefix(line, "{") {
		if err := json.Unmarshal([]byte(line), &in); err == nil {
			return in
		}
	}
	// Try to unquote if it's a JSON string
	var s string
	if err := json.Unmarshal([]byte(line), &s); err == nil {
		return JSONInput{Text: s}
	}
	// Fallback: raw text
	return JSONInput{Text: line}
}
