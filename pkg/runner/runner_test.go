package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoEngine answers every utterance with its text and records what it saw.
type echoEngine struct {
	mu       sync.Mutex
	seen     []domain.Utterance
	sessions []string
	expire   bool
}

func (e *echoEngine) HandleTurn(_ context.Context, utt domain.Utterance, sessionID string) (domain.Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seen = append(e.seen, utt)
	e.sessions = append(e.sessions, sessionID)
	return domain.Outcome{Success: true, Message: "echo: " + utt.Text, Route: domain.RouteExecuted}, nil
}

func (e *echoEngine) ExpirePending(context.Context, string, time.Duration) (domain.Outcome, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.expire {
		return domain.Outcome{}, false, nil
	}
	e.expire = false
	return domain.Outcome{Message: "too slow", Route: domain.RouteExpired}, true, nil
}

func TestRunner_TextConversation(t *testing.T) {
	in := strings.NewReader("hello\n\nturn on wifi\nexit\nnever read\n")
	out := &bytes.Buffer{}
	engine := &echoEngine{}

	r := NewRunner(
		WithSessionID("s1"),
		WithInputHandler(NewTextHandler(in, out)),
		WithGreeting("Welcome"),
	)
	require.NoError(t, r.Run(context.Background(), engine))

	require.Len(t, engine.seen, 2)
	assert.Equal(t, "hello", engine.seen[0].Text)
	assert.Equal(t, "turn on wifi", engine.seen[1].Text)
	assert.Equal(t, []string{"s1", "s1"}, engine.sessions)

	text := out.String()
	assert.Contains(t, text, "[System] Welcome")
	assert.Contains(t, text, "echo: hello")
	assert.Contains(t, text, "echo: turn on wifi")
	assert.NotContains(t, text, "never read")
}

func TestRunner_EndsOnEOF(t *testing.T) {
	engine := &echoEngine{}
	r := NewRunner(WithSessionID("s"), WithInputHandler(NewTextHandler(strings.NewReader("only line"), &bytes.Buffer{})))
	require.NoError(t, r.Run(context.Background(), engine))
	require.Len(t, engine.seen, 1)
	assert.Equal(t, "only line", engine.seen[0].Text)
}

func TestRunner_RequiresSession(t *testing.T) {
	r := NewRunner(WithInputHandler(NewTextHandler(strings.NewReader(""), &bytes.Buffer{})))
	assert.ErrorIs(t, r.Run(context.Background(), &echoEngine{}), domain.ErrEmptySessionID)
}

// blockingHandler never yields input, so only the expiry ticker can produce output.
type blockingHandler struct {
	mu      sync.Mutex
	outputs []domain.Outcome
}

func (h *blockingHandler) Input(ctx context.Context) (domain.Utterance, error) {
	<-ctx.Done()
	return domain.Utterance{}, ctx.Err()
}

func (h *blockingHandler) Output(_ context.Context, out domain.Outcome) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outputs = append(h.outputs, out)
	return nil
}

func (h *blockingHandler) SystemOutput(context.Context, string) error { return nil }

func (h *blockingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.outputs)
}

func TestRunner_ExpiresPendingWhileWaiting(t *testing.T) {
	h := &blockingHandler{}
	engine := &echoEngine{expire: true}
	r := NewRunner(WithSessionID("s"), WithInputHandler(h), WithConfirmationTTL(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, engine) }()

	assert.Eventually(t, func() bool { return h.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, "too slow", h.outputs[0].Message)
}

func TestRunner_JSONConversation(t *testing.T) {
	in := strings.NewReader(`{"text":"open website","entities":{"website":"github"},"signals":{"isCommand":true}}` + "\n" +
		`"plain string"` + "\n" +
		"raw text\n")
	out := &bytes.Buffer{}
	engine := &echoEngine{}

	r := NewRunner(WithSessionID("s"), WithInputHandler(NewJSONHandler(in, out)))
	require.NoError(t, r.Run(context.Background(), engine))

	require.Len(t, engine.seen, 3)
	assert.Equal(t, "github", engine.seen[0].NLU.Entities["website"])
	assert.True(t, engine.seen[0].NLU.Signal("isCommand"))
	assert.Equal(t, "plain string", engine.seen[1].Text)
	assert.Equal(t, "raw text", engine.seen[2].Text)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	var first JSONOutput
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "outcome", first.Type)
	assert.Equal(t, "echo: open website", first.Outcome.Message)
}
