package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/turnstile"
	"github.com/aretw0/turnstile/pkg/adapters/lua"
	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/aretw0/turnstile/pkg/observability"
	"github.com/aretw0/turnstile/pkg/registry"
)

// BuildRegistry registers the builtin games plus every Lua script in gamesDir.
func BuildRegistry(gamesDir string) (*registry.Registry, error) {
	entries, err := lua.Builtins()
	if err != nil {
		return nil, err
	}
	if gamesDir != "" {
		if _, err := os.Stat(gamesDir); err == nil {
			extra, err := lua.LoadDir(gamesDir)
			if err != nil {
				return nil, err
			}
			entries = append(entries, extra...)
		}
	}
	return registry.NewRegistry(entries...)
}

// createEngine initializes an engine with standard CLI conventions: games
// from the settings, transcripts in backend, and log hooks merged with extra.
func createEngine(reg *registry.Registry, backend *Backend, logger *slog.Logger, extra ...domain.LifecycleHooks) (*turnstile.Engine, error) {
	hooks := append([]domain.LifecycleHooks{observability.LogHooks(logger)}, extra...)

	opts := []turnstile.Option{
		turnstile.WithLogger(logger),
		turnstile.WithLifecycleHooks(observability.Combine(hooks...)),
	}
	if backend != nil {
		opts = append(opts, turnstile.WithSessionManager(backend.Sessions))
	}

	engine, err := turnstile.New(reg, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}
