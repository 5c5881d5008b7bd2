package determinism

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Results records which game and responder combinations were checked,
// as {game: {responder: deterministic}}.
type Results struct {
	mu   sync.Mutex
	path string
	data map[string]map[string]bool
}

// LoadResults reads a results file. A missing file is an empty result set.
func LoadResults(path string) (*Results, error) {
	r := &Results{path: path, data: make(map[string]map[string]bool)}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to read determinism results: %w", err)
	}
	if err := json.Unmarshal(raw, &r.data); err != nil {
		return nil, fmt.Errorf("failed to parse determinism results %s: %w", path, err)
	}
	return r, nil
}

// Tested reports whether the combination was already checked.
func (r *Results) Tested(game, responder string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.data[game][responder]
	return ok
}

// Record stores the verdict for a combination.
func (r *Results) Record(game, responder string, deterministic bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data[game] == nil {
		r.data[game] = make(map[string]bool)
	}
	r.data[game][responder] = deterministic
}

// Verdict returns the recorded result of a combination.
func (r *Results) Verdict(game, responder string) (deterministic, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deterministic, ok = r.data[game][responder]
	return deterministic, ok
}

// Save writes the results back to their file.
func (r *Results) Save() error {
	r.mu.Lock()
	data, err := json.MarshalIndent(r.data, "", "  ")
	r.mu.Unlock()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(r.path, data, 0644)
}
