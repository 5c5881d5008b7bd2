package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/turnstile/internal/config"
	httpAdapter "github.com/aretw0/turnstile/pkg/adapters/http"
	"github.com/aretw0/turnstile/pkg/agent"
	"github.com/aretw0/turnstile/pkg/observability"
)

// ShutdownTimeout bounds the graceful shutdown of the HTTP server.
const ShutdownTimeout = 5 * time.Second

// Handler builds the HTTP API of the app, with Prometheus metrics and SSE hooks
// installed on its engine.
func (a *App) Handler() (http.Handler, error) {
	metrics := observability.NewMetrics(nil)
	streams := httpAdapter.NewStreamManager()

	engine, err := a.Engine(metrics.Hooks(), streams.Hooks())
	if err != nil {
		return nil, err
	}

	return httpAdapter.NewHandler(engine,
		httpAdapter.WithStreams(streams),
		httpAdapter.WithMetrics(metrics.Handler()),
		httpAdapter.WithLogger(a.Logger),
		httpAdapter.WithResponderFactory(func(p httpAdapter.PlayerRequest, seed int64) (agent.Responder, error) {
			spec := config.PlayerSpec{Role: p.Role, CustomResponse: p.CustomResponse}
			return NewResponder(p.Responder, spec, seed, a.Settings, nil)
		}),
	), nil
}

// Serve runs the HTTP API on addr until ctx is cancelled.
func (a *App) Serve(ctx context.Context, addr string) error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.Logger.Info("Starting turnstile server", "addr", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		a.Logger.Info("Shutting down turnstile server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "error", err)
			return srv.Close()
		}
		return nil
	}
}
