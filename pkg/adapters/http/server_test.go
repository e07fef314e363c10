package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/parley"
	api "github.com/aretw0/parley/pkg/adapters/http"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/aretw0/parley/pkg/rules"
	"github.com/aretw0/parley/pkg/skills"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *parley.Engine {
	t.Helper()
	eng, err := parley.New(parley.WithSkills(skills.All(nil)...))
	require.NoError(t, err)
	return eng
}

func newHandler(t *testing.T, opts ...api.Option) (*api.Server, http.Handler) {
	t.Helper()
	srv := api.NewServer(newEngine(t), opts...)
	h, err := srv.Handler(context.Background())
	require.NoError(t, err)
	return srv, h
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeTurn(t *testing.T, w *httptest.ResponseRecorder) api.TurnResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp api.TurnResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestLoadSpec(t *testing.T) {
	doc, err := api.LoadSpec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Parley API", doc.Info.Title)
	assert.NotNil(t, doc.Paths.Find("/turn"))
}

func TestTurn_AwaitingRoundTrip(t *testing.T) {
	_, h := newHandler(t)

	resp := decodeTurn(t, do(t, h, http.MethodPost, "/turn", `{"session_id":"s1","text":"open website"}`))
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "Which website should I open?", resp.Message)
	assert.Equal(t, domain.RouteExecuted, resp.Route)

	w := do(t, h, http.MethodGet, "/sessions/s1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var sess map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.Equal(t, "awaiting_answer", sess["phase"])

	resp = decodeTurn(t, do(t, h, http.MethodPost, "/turn", `{"session_id":"s1","text":"github"}`))
	assert.True(t, resp.Success)
	assert.Equal(t, "browser.open_website", resp.Intent)
	assert.Equal(t, skills.ToolOpenURL, resp.Action)
	assert.Equal(t, "https://github.com", resp.Data["url"])
}

func TestTurn_ConfirmationRoundTrip(t *testing.T) {
	_, h := newHandler(t)

	resp := decodeTurn(t, do(t, h, http.MethodPost, "/turn", `{"session_id":"c","text":"shutdown the computer"}`))
	assert.Equal(t, domain.RouteConfirmPrompt, resp.Route)

	resp = decodeTurn(t, do(t, h, http.MethodPost, "/turn", `{"session_id":"c","text":"maybe"}`))
	assert.Equal(t, domain.RouteReprompt, resp.Route)

	resp = decodeTurn(t, do(t, h, http.MethodPost, "/turn", `{"session_id":"c","text":"no"}`))
	assert.Equal(t, domain.RouteCancelled, resp.Route)
}

func TestTurn_GeneratesSessionID(t *testing.T) {
	_, h := newHandler(t, api.WithIDGenerator(func() string { return "gen-1" }))

	resp := decodeTurn(t, do(t, h, http.MethodPost, "/turn", `{"text":"blorp"}`))
	assert.Equal(t, "gen-1", resp.SessionID)
	assert.Equal(t, domain.RouteUnknown, resp.Route)
}

func TestTurn_PassesNLUContext(t *testing.T) {
	eng, err := parley.New(
		parley.WithRules(rules.New("nlu", func(_ string, nlu domain.NLUContext) (*domain.Candidate, error) {
			if !nlu.Signal("isCommand") {
				return nil, nil
			}
			site, _ := nlu.Entity("website")
			return &domain.Candidate{Intent: "echo", Confidence: 1, Entities: map[string]any{"website": site}}, nil
		})),
		parley.WithHandlers(registry.Descriptor{
			Intent: "echo",
			Handler: func(_ context.Context, e map[string]any, _ *registry.HandlerContext) (domain.Outcome, error) {
				return domain.Outcome{Success: true, Message: e["website"].(string)}, nil
			},
		}),
	)
	require.NoError(t, err)

	h, err := api.NewHandler(eng)
	require.NoError(t, err)
	resp := decodeTurn(t, do(t, h, http.MethodPost, "/turn",
		`{"session_id":"n","text":"hello","entities":{"website":"github"},"signals":{"isCommand":true}}`))
	assert.Equal(t, "echo", resp.Intent)
	assert.Equal(t, "github", resp.Message)
}

func TestTurn_RejectsBadRequests(t *testing.T) {
	_, h := newHandler(t, api.WithMaxInputSize(16))

	tests := []struct {
		name string
		body string
	}{
		{"missing text", `{"session_id":"x"}`},
		{"empty text", `{"text":""}`},
		{"blank text", `{"text":"   "}`},
		{"wrong type", `{"text":42}`},
		{"malformed", `{"text":`},
		{"too large", `{"text":"this utterance is far too long"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/turn", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestSessions_GetListDelete(t *testing.T) {
	_, h := newHandler(t)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/sessions/ghost", "").Code)

	decodeTurn(t, do(t, h, http.MethodPost, "/turn", `{"session_id":"d1","text":"pause"}`))

	w := do(t, h, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ids []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ids))
	assert.Contains(t, ids, "d1")

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/sessions/d1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/sessions/d1", "").Code)
}

func TestIntents(t *testing.T) {
	_, h := newHandler(t)

	w := do(t, h, http.MethodGet, "/intents", "")
	require.Equal(t, http.StatusOK, w.Code)
	var intents []registry.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &intents))

	byName := map[string]registry.Info{}
	for _, in := range intents {
		byName[in.Intent] = in
	}
	require.Contains(t, byName, "system.shutdown")
	assert.True(t, byName["system.shutdown"].RequiresConfirmation)
	assert.Equal(t, "system", byName["system.shutdown"].Skill)
}

func TestHealthInfoSpec(t *testing.T) {
	_, h := newHandler(t)

	assert.JSONEq(t, `{"status":"ok"}`, do(t, h, http.MethodGet, "/health", "").Body.String())

	var info map[string]string
	require.NoError(t, json.Unmarshal(do(t, h, http.MethodGet, "/info", "").Body.Bytes(), &info))
	assert.Equal(t, "parley-http", info["app"])
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.Equal(t, strings.TrimSpace(parley.Version), info["version"])

	w := do(t, h, http.MethodGet, "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.Equal(api.Spec(), w.Body.Bytes()))
}

func TestEvents_RequiresSessionID(t *testing.T) {
	_, h := newHandler(t)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/events", "").Code)
}

func TestEvents_StreamsOutcomes(t *testing.T) {
	srv, h := newHandler(t)
	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events?session_id=live", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	lines := bufio.NewScanner(res.Body)
	readUntil := func(prefix string) string {
		for lines.Scan() {
			if strings.HasPrefix(lines.Text(), prefix) {
				return lines.Text()
			}
		}
		t.Fatalf("stream ended before %q: %v", prefix, lines.Err())
		return ""
	}
	assert.Equal(t, "data: connected", readUntil("data:"))
	require.Eventually(t, func() bool { return srv.Streams.Subscribers("live") == 1 }, time.Second, 10*time.Millisecond)

	post, err := http.Post(ts.URL+"/turn", "application/json", strings.NewReader(`{"session_id":"live","text":"pause"}`))
	require.NoError(t, err)
	post.Body.Close()

	assert.Equal(t, "event: outcome", readUntil("event: outcome"))
	data := strings.TrimPrefix(readUntil("data:"), "data: ")
	var resp api.TurnResponse
	require.NoError(t, json.Unmarshal([]byte(data), &resp))
	assert.Equal(t, "live", resp.SessionID)
	assert.Equal(t, "media.control", resp.Intent)
}

func TestStreamManager_DropsWhenFull(t *testing.T) {
	sm := api.NewStreamManager(nil)
	ch, cancel := sm.Subscribe("s")
	for i := 0; i < 100; i++ {
		sm.Broadcast("s", "x")
	}
	assert.Equal(t, 16, len(ch))

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("s"))
}
