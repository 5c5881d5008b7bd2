package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/aretw0/turnstile"
	"github.com/aretw0/turnstile/internal/logging"
	"github.com/aretw0/turnstile/pkg/agent"
	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// MaxRequestBody bounds the size of a POST /sessions body.
const MaxRequestBody = 1 << 20

// PlayerRequest seats one player of a session run over HTTP.
type PlayerRequest struct {
	Role           string   `json:"role,omitempty"`
	Responder      string   `json:"responder,omitempty"` // "scripted" (default), "custom" or a factory-known name
	Responses      []string `json:"responses,omitempty"`
	CustomResponse []string `json:"custom_response,omitempty"`
}

// RunRequest is the body of POST /sessions.
type RunRequest struct {
	SessionID  string          `json:"session_id,omitempty"`
	Game       string          `json:"game,omitempty"`
	EnvID      string          `json:"env_id"`
	Experiment string          `json:"experiment,omitempty"`
	Master     string          `json:"master,omitempty"`
	Scorer     string          `json:"scorer,omitempty"`
	Seed       int64           `json:"seed"`
	Players    []PlayerRequest `json:"players"`
	EnvOptions map[string]any  `json:"env_options,omitempty"`
}

// RunResponse summarizes a finished session.
type RunResponse struct {
	SessionID  string              `json:"session_id"`
	Outcome    domain.Outcome      `json:"outcome"`
	Metrics    domain.Metrics      `json:"metrics"`
	Rounds     int                 `json:"rounds"`
	Violations int                 `json:"violations"`
	Scores     map[string]*float64 `json:"scores,omitempty"` // null for undefined scores
}

// GameInfo describes a registered environment.
type GameInfo struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Players     int    `json:"players,omitempty"`
}

// ResponderFactory builds the responder of a seat. It returns (nil, nil)
// for names it does not know.
type ResponderFactory func(p PlayerRequest, seed int64) (agent.Responder, error)

// Server exposes an Engine over HTTP.
type Server struct {
	Engine     *turnstile.Engine
	Streams    *StreamManager
	Responders ResponderFactory
	Metrics    http.Handler
	Logger     *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithResponderFactory lets requests name responders beyond scripted and custom.
func WithResponderFactory(f ResponderFactory) Option {
	return func(s *Server) {
		s.Responders = f
	}
}

// WithMetrics mounts a Prometheus handler on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithStreams shares a StreamManager whose hooks are installed on the engine.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine *turnstile.Engine, opts ...Option) http.Handler {
	s := &Server{Engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager()
	}
	if s.Logger == nil {
		s.Logger = logging.NewNop()
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/games", s.ListGames)
	r.Get("/events", s.SubscribeEvents)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.RunSession)
		r.Get("/{id}", s.GetSession)
		r.Delete("/{id}", s.DeleteSession)
	})
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":      "turnstile-http",
		"version":  strings.TrimSpace(turnstile.Version),
		"variants": s.Engine.Variants(),
	})
}

// ListGames handles the GET /games request.
func (s *Server) ListGames(w http.ResponseWriter, r *http.Request) {
	entries := s.Engine.Registry().List()
	games := make([]GameInfo, len(entries))
	for i, e := range entries {
		games[i] = GameInfo{ID: e.ID, Description: e.Description, Players: e.Players}
	}
	s.writeJSON(w, http.StatusOK, games)
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	m := s.Engine.Sessions()
	if m == nil {
		http.Error(w, "No transcript store configured", http.StatusServiceUnavailable)
		return
	}
	ids, err := m.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("List sessions failed", "error", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	m := s.Engine.Sessions()
	if m == nil {
		http.Error(w, "No transcript store configured", http.StatusServiceUnavailable)
		return
	}
	id := chi.URLParam(r, "id")
	t, err := m.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("Load session failed", "session_id", id, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	m := s.Engine.Sessions()
	if m == nil {
		http.Error(w, "No transcript store configured", http.StatusServiceUnavailable)
		return
	}
	id := chi.URLParam(r, "id")
	exists, err := m.Exists(r.Context(), id)
	if err == nil && !exists {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if err == nil {
		err = m.Delete(r.Context(), id)
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Delete error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("Delete session failed", "session_id", id, "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunSession handles the POST /sessions request. The session is played to
// completion before the response is written; GET /events streams its turns.
func (s *Server) RunSession(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBody)).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("RunSession: Invalid request body", "error", err)
		return
	}

	cfg, err := s.sessionConfig(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.Engine.Run(r.Context(), cfg)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrSetup), errors.Is(err, domain.ErrUnknownEnvironment):
			status = http.StatusBadRequest
		case errors.Is(err, domain.ErrAgentInvocation):
			status = http.StatusBadGateway
		}
		http.Error(w, fmt.Sprintf("Session error: %v", err), status)
		s.Logger.Error("RunSession failed", "env_id", body.EnvID, "error", err)
		return
	}

	s.writeJSON(w, http.StatusCreated, RunResponse{
		SessionID:  res.SessionID,
		Outcome:    res.Outcome,
		Metrics:    res.Metrics,
		Rounds:     res.Rounds,
		Violations: res.Violations,
		Scores:     finiteScores(res.Scores),
	})
}

func (s *Server) sessionConfig(body RunRequest) (turnstile.SessionConfig, error) {
	if body.EnvID == "" {
		return turnstile.SessionConfig{}, fmt.Errorf("env_id is required")
	}
	if len(body.Players) == 0 {
		return turnstile.SessionConfig{}, fmt.Errorf("at least one player is required")
	}

	cfg := turnstile.SessionConfig{
		SessionID:  body.SessionID,
		Game:       body.Game,
		EnvID:      body.EnvID,
		Experiment: body.Experiment,
		Master:     body.Master,
		Scorer:     body.Scorer,
		Seed:       body.Seed,
		EnvOptions: body.EnvOptions,
	}
	for i, p := range body.Players {
		r, err := s.responder(p, body.Seed)
		if err != nil {
			return turnstile.SessionConfig{}, fmt.Errorf("player %d: %w", i, err)
		}
		cfg.Players = append(cfg.Players, turnstile.PlayerConfig{Role: p.Role, Responder: r})
	}
	return cfg, nil
}

func (s *Server) responder(p PlayerRequest, seed int64) (agent.Responder, error) {
	switch {
	case p.Responder == "custom" || (p.Responder == "" && len(p.CustomResponse) > 0):
		if len(p.CustomResponse) == 0 {
			return nil, fmt.Errorf("custom responder needs custom_response")
		}
		return agent.NewCustom(p.CustomResponse, seed), nil
	case p.Responder == "" || p.Responder == "scripted":
		return agent.NewScripted(p.Responses...), nil
	}
	if s.Responders != nil {
		r, err := s.Responders(p, seed)
		if err != nil {
			return nil, err
		}
		if r != nil {
			return r, nil
		}
	}
	return nil, fmt.Errorf("unknown responder %q", p.Responder)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "error", err)
	}
}

// finiteScores maps NaN and infinities to null, which JSON cannot carry.
func finiteScores(scores map[string]float64) map[string]*float64 {
	if len(scores) == 0 {
		return nil
	}
	out := make(map[string]*float64, len(scores))
	for k, v := range scores {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[k] = nil
			continue
		}
		out[k] = &v
	}
	return out
}
