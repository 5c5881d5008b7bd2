package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// BaseSeed is the seed of the first generated instance; instance i uses BaseSeed+i.
const BaseSeed int64 = 525119131

// GameSpec describes a benchmark game and its instances, loaded from YAML or JSON.
type GameSpec struct {
	GameName    string `yaml:"game_name" json:"game_name"`
	EnvID       string `yaml:"env_id" json:"env_id"`
	Description string `yaml:"description" json:"description"`
	Players     int    `yaml:"players" json:"players"`
	Master      string `yaml:"master" json:"master"`
	Scorer      string `yaml:"scorer" json:"scorer"`

	// Instances maps experiment names to loosely typed game instances.
	Instances map[string][]map[string]any `yaml:"instances" json:"instances"`

	Path string `yaml:"-" json:"-"`
}

// Instance is one episode of an experiment.
type Instance struct {
	GameID      int            `mapstructure:"game_id" yaml:"game_id" json:"game_id"`
	Seed        int64          `mapstructure:"seed" yaml:"seed" json:"seed"`
	PlayerSpecs []PlayerSpec   `mapstructure:"player_specs" yaml:"player_specs" json:"player_specs"`
	EnvSpecs    map[string]any `mapstructure:"env_specs" yaml:"env_specs,omitempty" json:"env_specs,omitempty"`
}

// PlayerSpec seats one player. In files it is either a bare role name or a
// map with role and custom_response.
type PlayerSpec struct {
	Role           string   `mapstructure:"role" yaml:"role,omitempty" json:"role,omitempty"`
	CustomResponse []string `mapstructure:"custom_response" yaml:"custom_response,omitempty" json:"custom_response,omitempty"`
}

// LoadGameSpec reads a game spec. The format follows the file extension;
// anything but .json is parsed as YAML.
func LoadGameSpec(path string) (*GameSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read game spec: %w", err)
	}

	var spec GameSpec
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	spec.Path = path
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &spec, nil
}

// LoadGameSpecs reads every spec in dir, sorted by game name.
func LoadGameSpecs(dir string) ([]*GameSpec, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read games directory: %w", err)
	}

	var specs []*GameSpec
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		if e.IsDir() {
			continue
		}
		spec, err := LoadGameSpec(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].GameName < specs[j].GameName })
	return specs, nil
}

// Validate checks the fields a session needs.
func (g *GameSpec) Validate() error {
	if g.GameName == "" {
		return fmt.Errorf("game spec without game_name")
	}
	if g.EnvID == "" {
		return fmt.Errorf("game %s: env_id is required", g.GameName)
	}
	if g.Players > 2 && (g.Master == "" || g.Scorer == "") {
		return fmt.Errorf("game %s: %d-player games need an explicit master and scorer", g.GameName, g.Players)
	}
	return nil
}

// Experiments lists the experiment names, sorted.
func (g *GameSpec) Experiments() []string {
	names := make([]string, 0, len(g.Instances))
	for name := range g.Instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExperimentInstances decodes the instances of one experiment. Instances
// without player specs get dummy "Player <i>" specs.
func (g *GameSpec) ExperimentInstances(experiment string) ([]Instance, error) {
	raw, ok := g.Instances[experiment]
	if !ok {
		return nil, fmt.Errorf("game %s has no experiment %q", g.GameName, experiment)
	}

	out := make([]Instance, 0, len(raw))
	for i, r := range raw {
		inst, err := decodeInstance(r)
		if err != nil {
			return nil, fmt.Errorf("game %s, experiment %s, instance %d: %w", g.GameName, experiment, i, err)
		}
		if len(inst.PlayerSpecs) == 0 {
			inst.PlayerSpecs = DummyPlayerSpecs(max(g.Players, 1))
		}
		out = append(out, inst)
	}
	return out, nil
}

func decodeInstance(raw map[string]any) (Instance, error) {
	var inst Instance
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: playerSpecHook,
		Result:     &inst,
	})
	if err != nil {
		return Instance{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Instance{}, err
	}
	return inst, nil
}

// playerSpecHook accepts a bare string where a PlayerSpec is expected.
func playerSpecHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.String && to == reflect.TypeOf(PlayerSpec{}) {
		return map[string]any{"role": data}, nil
	}
	return data, nil
}

// DummyPlayerSpecs returns n specs named "Player 0" to "Player n-1".
func DummyPlayerSpecs(n int) []PlayerSpec {
	specs := make([]PlayerSpec, n)
	for i := range specs {
		specs[i] = PlayerSpec{Role: fmt.Sprintf("Player %d", i)}
	}
	return specs
}

// GenerateInstances builds n instances seeded BaseSeed, BaseSeed+1, ...
func GenerateInstances(n, players int, envSpecs map[string]any) []Instance {
	out := make([]Instance, n)
	for i := range out {
		out[i] = Instance{
			GameID:      i,
			Seed:        BaseSeed + int64(i),
			PlayerSpecs: DummyPlayerSpecs(players),
			EnvSpecs:    envSpecs,
		}
	}
	return out
}

// SetInstances replaces an experiment with typed instances.
func (g *GameSpec) SetInstances(experiment string, instances []Instance) error {
	raw := make([]map[string]any, len(instances))
	for i, inst := range instances {
		var m map[string]any
		if err := mapstructure.Decode(inst, &m); err != nil {
			return err
		}
		raw[i] = m
	}
	if g.Instances == nil {
		g.Instances = make(map[string][]map[string]any)
	}
	g.Instances[experiment] = raw
	return nil
}

// Save writes the spec back as YAML (or JSON for a .json path).
func (g *GameSpec) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		data, err = json.MarshalIndent(g, "", "  ")
	} else {
		data, err = yaml.Marshal(g)
	}
	if err != nil {
		return fmt.Errorf("failed to encode game spec: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
