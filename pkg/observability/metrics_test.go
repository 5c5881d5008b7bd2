package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/aretw0/turnstile/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics(nil)
	h := m.Hooks()
	ctx := context.Background()

	turn := &domain.TurnEvent{Game: "nim", AgentID: 0, Duration: 20 * time.Millisecond}
	h.OnTurn(ctx, turn)
	h.OnTurn(ctx, turn)
	h.OnViolation(ctx, turn)
	h.OnRoundComplete(ctx, &domain.RoundEvent{Game: "nim", Round: 1})
	h.OnGameEnd(ctx, &domain.GameEvent{Game: "nim", Metrics: domain.Metrics{Aborted: 1, Lose: 1}})
	h.OnGameEnd(ctx, &domain.GameEvent{Game: "nim", Metrics: domain.Metrics{Success: 1}})
	h.OnGameEnd(ctx, &domain.GameEvent{Game: "guess"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Turns.WithLabelValues("nim")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Violations.WithLabelValues("nim")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rounds.WithLabelValues("nim")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sessions.WithLabelValues("nim", "aborted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sessions.WithLabelValues("nim", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sessions.WithLabelValues("guess", "draw")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.AgentDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics(nil)
	m.Hooks().OnTurn(context.Background(), &domain.TurnEvent{Game: "nim"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `turnstile_turns_total{game="nim"} 1`)
}

func TestCombine(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{OnGameEnd: func(context.Context, *domain.GameEvent) { order = append(order, "a") }}
	b := domain.LifecycleHooks{
		OnTurn:    func(context.Context, *domain.TurnEvent) { order = append(order, "b-turn") },
		OnGameEnd: func(context.Context, *domain.GameEvent) { order = append(order, "b") },
	}
	h := observability.Combine(a, b)
	ctx := context.Background()
	h.OnTurn(ctx, &domain.TurnEvent{})
	h.OnViolation(ctx, &domain.TurnEvent{})
	h.OnGameEnd(ctx, &domain.GameEvent{})
	assert.Equal(t, []string{"b-turn", "a", "b"}, order)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := observability.LogHooks(logger)

	h.OnGameEnd(context.Background(), &domain.GameEvent{SessionID: "s1", Game: "nim", Rounds: 3})
	assert.Contains(t, buf.String(), "game_end")
	assert.Contains(t, buf.String(), "session_id=s1")
	assert.Contains(t, buf.String(), "rounds=3")
}
