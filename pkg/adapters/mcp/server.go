package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// IntentsURI is the resource listing registered intents.
const IntentsURI = "parley://intents"

// Engine is the subset of parley.Engine the MCP server drives.
type Engine interface {
	HandleTurn(ctx context.Context, utt domain.Utterance, sessionID string) (domain.Outcome, error)
	Reset(ctx context.Context, sessionID string) error
	Catalog() []registry.Info
}

// TurnArgs are the arguments of the handle_turn tool.
type TurnArgs struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// TurnResult mirrors the HTTP TurnResponse so both adapters speak the same shape.
type TurnResult struct {
	SessionID string         `json:"session_id" jsonschema_description:"Session the turn ran on"`
	Success   bool           `json:"success" jsonschema_description:"Whether the action succeeded"`
	Message   string         `json:"message" jsonschema_description:"Text to show the user"`
	Action    string         `json:"action,omitempty" jsonschema_description:"Side effect requested by the handler"`
	Data      map[string]any `json:"data,omitempty"`
	Route     string         `json:"route,omitempty" jsonschema_description:"Dispatch path that produced the outcome"`
	Intent    string         `json:"intent,omitempty"`
}

// ResetArgs are the arguments of the reset_session tool.
type ResetArgs struct {
	SessionID string `json:"session_id"`
}

// Server wraps the engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP server for engine.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("parley-mcp", strings.TrimSpace(parley.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, mainly for in-process transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on stdin/stdout until EOF.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	turnTool := mcp.NewTool("handle_turn",
		mcp.WithDescription("Send one user utterance to a conversation session and get the assistant's outcome. "+
			"Follow-up answers and yes/no confirmations must reuse the same session_id."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation session ID")),
		mcp.WithString("text", mcp.Required(), mcp.Description("What the user said")),
		mcp.WithOutputSchema[TurnResult](),
	)
	s.mcpServer.AddTool(turnTool, mcp.NewStructuredToolHandler(s.handleTurn))

	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Forget any pending question or confirmation for a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation session ID")),
	), s.handleReset)

	s.mcpServer.AddTool(mcp.NewTool("list_intents",
		mcp.WithDescription("List the intents this assistant can handle."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.engine.Catalog())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode intents: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleTurn(ctx context.Context, _ mcp.CallToolRequest, args TurnArgs) (TurnResult, error) {
	if args.SessionID == "" {
		return TurnResult{}, domain.ErrEmptySessionID
	}
	clean, err := runner.SanitizeInput(args.Text)
	if err != nil {
		s.logger.Warn("mcp turn: input rejected", "err", err, "size", len(args.Text))
		return TurnResult{}, fmt.Errorf("input rejected: %w", err)
	}

	out, err := s.engine.HandleTurn(ctx, domain.NewUtterance(clean), args.SessionID)
	if err != nil {
		s.logger.Error("mcp turn failed", "session_id", args.SessionID, "err", err)
		return TurnResult{}, fmt.Errorf("turn failed: %w", err)
	}
	return TurnResult{
		SessionID: args.SessionID,
		Success:   out.Success,
		Message:   out.Message,
		Action:    out.Action,
		Data:      out.Data,
		Route:     string(out.Route),
		Intent:    out.Intent,
	}, nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args ResetArgs
	if err := request.BindArguments(&args); err != nil || args.SessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	if err := s.engine.Reset(ctx, args.SessionID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
	}
	return mcp.NewToolResultText("ok"), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(IntentsURI, "Registered intents",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Catalog())
		if err != nil {
			return nil, fmt.Errorf("failed to encode intents: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      IntentsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
