package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors fed by session lifecycle hooks.
type Metrics struct {
	Turns         *prometheus.CounterVec
	Violations    *prometheus.CounterVec
	Rounds        *prometheus.CounterVec
	Sessions      *prometheus.CounterVec
	AgentDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg uses a fresh registry, which keeps tests isolated.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnstile_turns_total",
				Help: "Total number of environment steps",
			},
			[]string{"game"},
		),
		Violations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnstile_request_violations_total",
				Help: "Total number of steps flagged with an invalid move",
			},
			[]string{"game"},
		),
		Rounds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnstile_rounds_total",
				Help: "Total number of completed rounds",
			},
			[]string{"game"},
		),
		Sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnstile_sessions_total",
				Help: "Finished sessions by classification",
			},
			[]string{"game", "result"},
		),
		AgentDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "turnstile_agent_duration_seconds",
				Help:    "Time agents spent producing a response",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"game"},
		),
		gatherer: reg,
	}
	reg.MustRegister(m.Turns, m.Violations, m.Rounds, m.Sessions, m.AgentDuration)
	return m
}

// Hooks returns lifecycle hooks recording into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(ctx context.Context, e *domain.TurnEvent) {
			m.Turns.WithLabelValues(e.Game).Inc()
			if e.Duration > 0 {
				m.AgentDuration.WithLabelValues(e.Game).Observe(e.Duration.Seconds())
			}
		},
		OnViolation: func(ctx context.Context, e *domain.TurnEvent) {
			m.Violations.WithLabelValues(e.Game).Inc()
		},
		OnRoundComplete: func(ctx context.Context, e *domain.RoundEvent) {
			m.Rounds.WithLabelValues(e.Game).Inc()
		},
		OnGameEnd: func(ctx context.Context, e *domain.GameEvent) {
			m.Sessions.WithLabelValues(e.Game, resultLabel(e.Metrics)).Inc()
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func resultLabel(mt domain.Metrics) string {
	switch {
	case mt.Aborted > 0:
		return "aborted"
	case mt.Success > 0:
		return "success"
	case mt.Lose > 0:
		return "lose"
	}
	return "draw"
}
