package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/turnstile/pkg/domain"
)

// LogHooks returns lifecycle hooks writing one structured record per event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnViolation: func(ctx context.Context, e *domain.TurnEvent) {
			logger.Warn("request_violation", "session_id", e.SessionID, "game", e.Game, "agent", e.AgentID, "round", e.Round)
		},
		OnRoundComplete: func(ctx context.Context, e *domain.RoundEvent) {
			logger.Debug("round_complete", "session_id", e.SessionID, "game", e.Game, "round", e.Round)
		},
		OnGameEnd: func(ctx context.Context, e *domain.GameEvent) {
			logger.Info("game_end",
				"session_id", e.SessionID,
				"game", e.Game,
				"rounds", e.Rounds,
				"violations", e.Violations,
				"aborted", e.Metrics.Aborted,
				"success", e.Metrics.Success,
				"lose", e.Metrics.Lose,
			)
		},
	}
}

// Combine fans every event out to each set of hooks, in order.
func Combine(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(ctx context.Context, e *domain.TurnEvent) {
			for _, h := range all {
				if h.OnTurn != nil {
					h.OnTurn(ctx, e)
				}
			}
		},
		OnViolation: func(ctx context.Context, e *domain.TurnEvent) {
			for _, h := range all {
				if h.OnViolation != nil {
					h.OnViolation(ctx, e)
				}
			}
		},
		OnRoundComplete: func(ctx context.Context, e *domain.RoundEvent) {
			for _, h := range all {
				if h.OnRoundComplete != nil {
					h.OnRoundComplete(ctx, e)
				}
			}
		},
		OnGameEnd: func(ctx context.Context, e *domain.GameEvent) {
			for _, h := range all {
				if h.OnGameEnd != nil {
					h.OnGameEnd(ctx, e)
				}
			}
		},
	}
}
