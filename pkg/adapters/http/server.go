package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// maxBodyBytes bounds the JSON body of a turn request.
const maxBodyBytes = 1 << 20

// Engine is the subset of parley.Engine the HTTP API drives.
type Engine interface {
	HandleTurn(ctx context.Context, utt domain.Utterance, sessionID string) (domain.Outcome, error)
	Reset(ctx context.Context, sessionID string) error
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
	Sessions(ctx context.Context) ([]string, error)
	Catalog() []registry.Info
}

// TurnRequest is the body of POST /turn.
type TurnRequest struct {
	SessionID string          `json:"session_id,omitempty"`
	Text      string          `json:"text"`
	Entities  map[string]any  `json:"entities,omitempty"`
	Signals   map[string]bool `json:"signals,omitempty"`
}

// TurnResponse is the Outcome of a turn plus the session it ran on.
type TurnResponse struct {
	SessionID string `json:"session_id"`
	domain.Outcome
}

type sessionView struct {
	*domain.Session
	Phase domain.Phase `json:"phase"`
}

// Server serves the Parley HTTP API.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	logger   *slog.Logger
	maxInput int
	newID    func() string
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

// WithMaxInputSize caps the utterance size in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInput = n
	}
}

// WithIDGenerator sets how session IDs are minted when a request omits one.
func WithIDGenerator(fn func() string) Option {
	return func(s *Server) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewServer creates a Server for engine.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine: engine,
		logger: logging.NewNop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates the HTTP handler for engine with contract validation enabled.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	return NewServer(engine, opts...).Handler(context.Background())
}

// Handler builds the router. Requests are validated against the embedded OpenAPI document.
func (s *Server) Handler(ctx context.Context) (http.Handler, error) {
	doc, err := LoadSpec(ctx)
	if err != nil {
		return nil, err
	}
	validate, err := requestValidator(doc, s.logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	r.Group(func(r chi.Router) {
		r.Use(validate)
		r.Post("/turn", s.HandleTurn)
		r.Get("/intents", s.ListIntents)
		r.Get("/sessions", s.ListSessions)
		r.Get("/sessions/{id}", s.GetSession)
		r.Delete("/sessions/{id}", s.DeleteSession)
		r.Get("/events", s.SubscribeEvents)
	})
	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandleTurn handles POST /turn.
func (s *Server) HandleTurn(w http.ResponseWriter, r *http.Request) {
	var body TurnRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("turn: invalid request body", "err", err)
		return
	}

	text, err := runner.SanitizeInputWithLimit(body.Text, s.maxInput)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid input: %v", err))
		s.logger.Warn("turn: input rejected", "err", err, "size", len(body.Text))
		return
	}
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "text is empty")
		return
	}

	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = s.newID()
	}

	utt := domain.Utterance{
		Text: text,
		NLU:  domain.NLUContext{Entities: body.Entities, Signals: body.Signals},
	}
	out, err := s.Engine.HandleTurn(r.Context(), utt, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "turn failed")
		s.logger.Error("turn failed", "session_id", sessionID, "err", err)
		return
	}

	resp := TurnResponse{SessionID: sessionID, Outcome: out}
	if payload, err := json.Marshal(resp); err == nil {
		s.Streams.Broadcast(sessionID, string(payload))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListIntents handles GET /intents.
func (s *Server) ListIntents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Catalog())
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Sessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		s.logger.Error("list sessions failed", "err", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.Engine.Session(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load session")
		s.logger.Error("load session failed", "session_id", id, "err", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView{Session: sess, Phase: sess.Phase()})
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Engine.Reset(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		s.logger.Error("delete session failed", "session_id", id, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := LoadSpec(r.Context()); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "parley-http",
		"version":     strings.TrimSpace(parley.Version),
		"api_version": apiVersion,
	})
}

// SubscribeEvents handles GET /events (SSE). Each turn on the session is sent as an "outcome" event.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	sessionID := r.URL.Query().Get("session_id")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("sse subscribed", "session_id", sessionID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("sse client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: outcome\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
