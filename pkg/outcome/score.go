package outcome

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/aretw0/turnstile/pkg/domain"
)

// Scorer turns the logged keys of a finished session into episode scores.
type Scorer interface {
	Name() string
	Score(tr *domain.Transcript) (map[string]float64, error)
}

// SinglePlayerScorer scores numeric_reward*100, or NaN for aborted or lost episodes.
type SinglePlayerScorer struct{}

func (SinglePlayerScorer) Name() string { return "single_player" }

func (SinglePlayerScorer) Score(tr *domain.Transcript) (map[string]float64, error) {
	aborted, err := numberKey(tr, domain.MetricAborted)
	if err != nil {
		return nil, err
	}
	lose, err := numberKey(tr, domain.MetricLose)
	if err != nil {
		return nil, err
	}
	reward, err := numberKey(tr, domain.KeyNumericReward)
	if err != nil {
		return nil, err
	}

	scores := map[string]float64{"Numeric Reward": reward}
	if aborted == 1 || lose == 1 {
		scores[domain.BenchScore] = math.NaN()
	} else {
		scores[domain.BenchScore] = reward * 100
	}
	return scores, nil
}

// TwoPlayerScorer reports each agent's ta_reward; the bench score is NaN.
type TwoPlayerScorer struct{}

func (TwoPlayerScorer) Name() string { return "two_player" }

func (TwoPlayerScorer) Score(tr *domain.Transcript) (map[string]float64, error) {
	raw, ok := tr.Key(domain.KeyReward)
	if !ok {
		return nil, fmt.Errorf("transcript %s has no %q", tr.SessionID, domain.KeyReward)
	}
	rewards, err := rewardMap(raw)
	if err != nil {
		return nil, err
	}

	scores := map[string]float64{domain.BenchScore: math.NaN()}
	for id, r := range rewards {
		scores[fmt.Sprintf("%s Player %d", domain.KeyReward, id)] = r
	}
	return scores, nil
}

// Registry resolves scorers by name, with defaults by player count.
// It is built once and never mutated.
type Registry struct {
	byName map[string]Scorer
}

// NewRegistry creates a registry holding the built-in scorers plus extra ones.
func NewRegistry(extra ...Scorer) *Registry {
	r := &Registry{byName: make(map[string]Scorer)}
	for _, s := range append([]Scorer{SinglePlayerScorer{}, TwoPlayerScorer{}}, extra...) {
		r.byName[s.Name()] = s
	}
	return r
}

// Lookup returns the named scorer, or the default for the player count when
// name is empty. Games with more than two players must name their scorer.
func (r *Registry) Lookup(name string, players int) (Scorer, error) {
	if name == "" {
		switch players {
		case 1:
			name = SinglePlayerScorer{}.Name()
		case 2:
			name = TwoPlayerScorer{}.Name()
		default:
			return nil, fmt.Errorf("%w: games with %d players require an explicit scorer", domain.ErrSetup, players)
		}
	}
	s, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown scorer %q", domain.ErrSetup, name)
	}
	return s, nil
}

// Names lists the registered scorers, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func numberKey(tr *domain.Transcript, key string) (float64, error) {
	v, ok := tr.Key(key)
	if !ok {
		return 0, fmt.Errorf("transcript %s has no %q", tr.SessionID, key)
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("key %q: %w", key, err)
	}
	return f, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

// rewardMap accepts ta_reward both as logged in memory and as decoded from JSON.
func rewardMap(v any) (map[int]float64, error) {
	out := make(map[int]float64)
	switch m := v.(type) {
	case map[int]float64:
		for id, r := range m {
			out[id] = r
		}
	case map[string]any:
		for k, raw := range m {
			id, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("invalid agent id %q in %s", k, domain.KeyReward)
			}
			r, err := toFloat(raw)
			if err != nil {
				return nil, err
			}
			out[id] = r
		}
	default:
		return nil, fmt.Errorf("unexpected %s type %T", domain.KeyReward, v)
	}
	return out, nil
}
