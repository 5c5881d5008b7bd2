package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/turnstile/internal/logging"
	"github.com/aretw0/turnstile/pkg/domain"
)

// allSessions is the subscription key receiving every session's events.
const allSessions = "*"

// StreamEvent is the payload pushed to SSE subscribers.
type StreamEvent struct {
	Type       string          `json:"type"` // turn, violation, round or game_end
	SessionID  string          `json:"session_id"`
	Game       string          `json:"game"`
	AgentID    *int            `json:"agent_id,omitempty"`
	Round      int             `json:"round"`
	Done       bool            `json:"done,omitempty"`
	Violations int             `json:"violations,omitempty"`
	Metrics    *domain.Metrics `json:"metrics,omitempty"`
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates a manager with no subscribers.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a channel for sessionID ("" for every session).
// The returned func unregisters and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	if sessionID == "" {
		sessionID = allSessions
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Broadcast sends msg to the subscribers of sessionID and of every session.
// Slow subscribers lose messages instead of blocking the session.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, key := range []string{sessionID, allSessions} {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
			}
		}
	}
}

func (sm *StreamManager) publish(e StreamEvent) {
	data, err := json.Marshal(e)
	if err != nil {
		sm.logger.Error("SSE: encode failed", "error", err)
		return
	}
	sm.Broadcast(e.SessionID, string(data))
}

// Hooks returns lifecycle hooks publishing session events to subscribers.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	turn := func(kind string) func(context.Context, *domain.TurnEvent) {
		return func(_ context.Context, e *domain.TurnEvent) {
			id := e.AgentID
			sm.publish(StreamEvent{Type: kind, SessionID: e.SessionID, Game: e.Game, AgentID: &id, Round: e.Round, Done: e.Done})
		}
	}
	return domain.LifecycleHooks{
		OnTurn:      turn("turn"),
		OnViolation: turn("violation"),
		OnRoundComplete: func(_ context.Context, e *domain.RoundEvent) {
			sm.publish(StreamEvent{Type: "round", SessionID: e.SessionID, Game: e.Game, Round: e.Round})
		},
		OnGameEnd: func(_ context.Context, e *domain.GameEvent) {
			m := e.Metrics
			sm.publish(StreamEvent{
				Type: "game_end", SessionID: e.SessionID, Game: e.Game,
				Round: e.Rounds, Done: true, Violations: e.Violations, Metrics: &m,
			})
		},
	}
}

// SubscribeEvents handles the GET /events request (SSE).
// ?session_id= narrows the stream to one session, ?watch=turn,game_end to some event types.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sessionID := r.URL.Query().Get("session_id")
	watch := make(map[string]bool)
	if v := r.URL.Query().Get("watch"); v != "" {
		for _, kind := range strings.Split(v, ",") {
			watch[strings.TrimSpace(kind)] = true
		}
	}

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	s.Logger.Info("SSE: Subscribing to session events", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 {
				var e StreamEvent
				if err := json.Unmarshal([]byte(msg), &e); err == nil && !watch[e.Type] {
					continue
				}
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
