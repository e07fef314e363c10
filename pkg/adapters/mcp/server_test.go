package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/adapters/mcp"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/aretw0/parley/pkg/skills"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpc struct {
	t      *testing.T
	server *mcp.Server
	nextID int
}

func newRPC(t *testing.T) *rpc {
	t.Helper()
	eng, err := parley.New(parley.WithSkills(skills.All(nil)...))
	require.NoError(t, err)
	r := &rpc{t: t, server: mcp.NewServer(eng)}
	r.call("initialize", map[string]any{
		"protocolVersion": "2025-03-26",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "0"},
	})
	return r
}

// call sends one JSON-RPC request and returns the decoded "result" member.
func (r *rpc) call(method string, params any) map[string]any {
	r.t.Helper()
	r.nextID++
	raw, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      r.nextID,
		"method":  method,
		"params":  params,
	})
	require.NoError(r.t, err)

	resp := r.server.MCPServer().HandleMessage(context.Background(), raw)
	out, err := json.Marshal(resp)
	require.NoError(r.t, err)

	var envelope struct {
		Result map[string]any `json:"result"`
		Error  map[string]any `json:"error"`
	}
	require.NoError(r.t, json.Unmarshal(out, &envelope))
	require.Nil(r.t, envelope.Error, fmt.Sprintf("%s failed: %v", method, envelope.Error))
	return envelope.Result
}

func (r *rpc) tool(name string, args map[string]any) map[string]any {
	return r.call("tools/call", map[string]any{"name": name, "arguments": args})
}

func TestListTools(t *testing.T) {
	r := newRPC(t)
	res := r.call("tools/list", map[string]any{})

	var names []string
	for _, tool := range res["tools"].([]any) {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	assert.ElementsMatch(t, []string{"handle_turn", "reset_session", "list_intents"}, names)
}

func TestHandleTurn_ConfirmationFlow(t *testing.T) {
	r := newRPC(t)

	res := r.tool("handle_turn", map[string]any{"session_id": "m1", "text": "shutdown the computer"})
	assert.NotEqual(t, true, res["isError"])
	out := res["structuredContent"].(map[string]any)
	assert.Equal(t, "confirm_prompt", out["route"])
	assert.Equal(t, "m1", out["session_id"])

	res = r.tool("handle_turn", map[string]any{"session_id": "m1", "text": "nope"})
	out = res["structuredContent"].(map[string]any)
	assert.Equal(t, "cancelled", out["route"])
}

func TestHandleTurn_RejectsMissingSession(t *testing.T) {
	r := newRPC(t)
	res := r.tool("handle_turn", map[string]any{"text": "pause"})
	assert.Equal(t, true, res["isError"])
}

func TestResetSession(t *testing.T) {
	r := newRPC(t)

	r.tool("handle_turn", map[string]any{"session_id": "m2", "text": "open website"})
	res := r.tool("reset_session", map[string]any{"session_id": "m2"})
	assert.NotEqual(t, true, res["isError"])

	// Without the awaiting marker "github" is classified normally and matches nothing.
	res = r.tool("handle_turn", map[string]any{"session_id": "m2", "text": "github"})
	out := res["structuredContent"].(map[string]any)
	assert.Equal(t, "unknown", out["route"])

	res = r.tool("reset_session", map[string]any{})
	assert.Equal(t, true, res["isError"])
}

func TestListIntents_ToolAndResource(t *testing.T) {
	r := newRPC(t)

	res := r.tool("list_intents", map[string]any{})
	content := res["content"].([]any)
	require.Len(t, content, 1)
	var intents []registry.Info
	require.NoError(t, json.Unmarshal([]byte(content[0].(map[string]any)["text"].(string)), &intents))
	assert.NotEmpty(t, intents)

	res = r.call("resources/read", map[string]any{"uri": mcp.IntentsURI})
	contents := res["contents"].([]any)
	require.Len(t, contents, 1)
	first := contents[0].(map[string]any)
	assert.Equal(t, mcp.IntentsURI, first["uri"])
	assert.Equal(t, "application/json", first["mimeType"])

	var fromResource []registry.Info
	require.NoError(t, json.Unmarshal([]byte(first["text"].(string)), &fromResource))
	assert.Equal(t, intents, fromResource)
}
