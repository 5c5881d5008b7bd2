package registry

import (
	"fmt"
	"sort"

	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/aretw0/turnstile/pkg/ports"
)

// Factory builds a fresh environment. Each session owns the instance it gets.
// Options come from the game instance's env_specs.
type Factory func(options map[string]any) (ports.Environment, error)

// Entry describes one registered environment.
type Entry struct {
	ID          string
	Description string
	Players     int // 0 means any number of players
	Factory     Factory
}

// Registry maps environment ids to their factories.
// It is built once at startup and never mutated, so sessions may share it.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry creates a registry from the given entries.
// Duplicate or empty ids and missing factories are rejected.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("environment entry without id")
		}
		if e.Factory == nil {
			return nil, fmt.Errorf("environment %q has no factory", e.ID)
		}
		if _, dup := r.entries[e.ID]; dup {
			return nil, fmt.Errorf("environment %q registered twice", e.ID)
		}
		r.entries[e.ID] = e
	}
	return r, nil
}

// Lookup returns the entry registered under id.
func (r *Registry) Lookup(id string) (Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// Make builds a new environment instance.
// Returns domain.ErrUnknownEnvironment if id is not registered.
func (r *Registry) Make(id string, options map[string]any) (ports.Environment, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEnvironment, id)
	}
	env, err := e.Factory(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create environment %s: %w", id, err)
	}
	return env, nil
}

// List returns all entries sorted by id.
func (r *Registry) List() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
