package cli

import (
	"errors"
	"log/slog"

	"github.com/aretw0/turnstile"
	"github.com/aretw0/turnstile/internal/config"
	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/aretw0/turnstile/pkg/registry"
)

// App holds what every command shares: settings, games and the transcript store.
type App struct {
	Settings config.Settings
	Logger   *slog.Logger
	Console  *Console
	Registry *registry.Registry
	Backend  *Backend
	Hooks    []domain.LifecycleHooks
}

// NewApp opens the configured store and loads the games.
func NewApp(s config.Settings, logger *slog.Logger, console *Console) (*App, error) {
	reg, err := BuildRegistry(s.GamesDir)
	if err != nil {
		return nil, err
	}
	backend, err := OpenBackend(s, logger)
	if err != nil {
		return nil, err
	}
	return &App{
		Settings: s,
		Logger:   logger,
		Console:  console,
		Registry: reg,
		Backend:  backend,
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.Backend == nil {
		return nil
	}
	return a.Backend.Close()
}

// Engine builds an engine persisting to the app's store.
func (a *App) Engine(hooks ...domain.LifecycleHooks) (*turnstile.Engine, error) {
	return createEngine(a.Registry, a.Backend, a.Logger, append(a.Hooks, hooks...)...)
}

// Specs loads the game specs of the games directory.
func (a *App) Specs() ([]*config.GameSpec, error) {
	if a.Settings.GamesDir == "" {
		return nil, nil
	}
	return config.LoadGameSpecs(a.Settings.GamesDir)
}

var errNoGame = errors.New("no such game")

// spec finds a game spec by game name. Environment ids without a spec get
// an ad-hoc spec of one generated instance.
func (a *App) spec(name string, players int, seed int64, envOptions map[string]any) (*config.GameSpec, error) {
	specs, err := a.Specs()
	if err != nil {
		return nil, err
	}
	for _, s := range specs {
		if s.GameName == name {
			return s, nil
		}
	}

	entry, ok := a.Registry.Lookup(name)
	if !ok {
		return nil, errNoGame
	}
	if players <= 0 {
		players = max(entry.Players, 1)
	}
	spec := &config.GameSpec{GameName: name, EnvID: name, Players: players}
	inst := config.GenerateInstances(1, players, envOptions)
	if seed != 0 {
		inst[0].Seed = seed
	}
	if err := spec.SetInstances("adhoc", inst); err != nil {
		return nil, err
	}
	return spec, nil
}
