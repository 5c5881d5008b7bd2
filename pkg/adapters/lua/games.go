package lua

import (
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/turnstile/pkg/ports"
	"github.com/aretw0/turnstile/pkg/registry"
	glua "github.com/yuin/gopher-lua"
)

//go:embed games/*.lua
var builtin embed.FS

// Entry evaluates a game script once to read its metadata and returns the
// registry entry building environments from it.
func Entry(source string) (registry.Entry, error) {
	L := newState()
	defer L.Close()

	// Metadata is read without a module: scripts only touch "game" inside functions.
	game, err := loadGame(L, source)
	if err != nil {
		return registry.Entry{}, err
	}
	id := glua.LVAsString(game.RawGetString("id"))
	if id == "" {
		return registry.Entry{}, fmt.Errorf("game script has no id")
	}

	return registry.Entry{
		ID:          id,
		Description: glua.LVAsString(game.RawGetString("description")),
		Players:     int(glua.LVAsNumber(game.RawGetString("players"))),
		Factory: func(options map[string]any) (ports.Environment, error) {
			return NewEnv(id, source, options), nil
		},
	}, nil
}

// Builtins returns the entries of the games shipped with turnstile.
func Builtins() ([]registry.Entry, error) {
	files, err := builtin.ReadDir("games")
	if err != nil {
		return nil, err
	}
	var entries []registry.Entry
	for _, f := range files {
		data, err := builtin.ReadFile(path.Join("games", f.Name()))
		if err != nil {
			return nil, err
		}
		e, err := Entry(string(data))
		if err != nil {
			return nil, fmt.Errorf("builtin game %s: %w", f.Name(), err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// LoadDir returns the entries of every *.lua script in dir.
func LoadDir(dir string) ([]registry.Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read games directory: %w", err)
	}
	var names []string
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".lua") {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)

	var entries []registry.Entry
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		e, err := Entry(string(data))
		if err != nil {
			return nil, fmt.Errorf("game %s: %w", name, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
