package outcome

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	rs := domain.RewardStructure{
		Rewards: map[int]float64{0: 1, 1: -1},
		Details: map[int]map[string]any{
			0: {"invalid_move": false, "reason": "Player 0 took the last stone.", "stones": 0},
			1: {"invalid_move": true, "reason": "Player 0 took the last stone."},
		},
	}

	o, err := Extract(rs)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, o.AgentIDs())

	zero, _ := o.Agent(0)
	assert.Equal(t, 1.0, zero.Reward)
	assert.False(t, zero.InvalidMove)
	assert.Equal(t, "Player 0 took the last stone.", zero.Reason)
	assert.Equal(t, map[string]any{"stones": 0}, zero.Extra)

	one, _ := o.Agent(1)
	assert.True(t, one.InvalidMove)
	assert.Nil(t, one.Extra)

	// Input is not mutated
	assert.Contains(t, rs.Details[0], "reason")
}

func TestExtract_IsDeterministic(t *testing.T) {
	rs := domain.RewardStructure{
		Rewards: map[int]float64{0: 0.5},
		Details: map[int]map[string]any{0: {"invalid_move": false, "reason": "r"}},
	}
	a, err := Extract(rs)
	require.NoError(t, err)
	b, err := Extract(rs)
	require.NoError(t, err)

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	assert.JSONEq(t, string(ja), string(jb))
}

func TestExtract_Errors(t *testing.T) {
	_, err := Extract(domain.RewardStructure{
		Rewards: map[int]float64{0: 1},
	})
	assert.Error(t, err, "missing details")

	_, err = Extract(domain.RewardStructure{
		Rewards: map[int]float64{0: 1},
		Details: map[int]map[string]any{0: {"invalid_move": "yes"}},
	})
	assert.Error(t, err, "non-bool invalid_move")

	_, err = Extract(domain.RewardStructure{
		Rewards: map[int]float64{0: 1},
		Details: map[int]map[string]any{0: {}, 1: {}},
	})
	assert.Error(t, err, "details without reward")
}

func TestDetails_RoundTrip(t *testing.T) {
	o := domain.NewOutcome(map[int]domain.AgentOutcome{
		0: {Reward: 1, Reason: "done", Extra: map[string]any{"k": "v"}},
	})
	assert.Equal(t, map[int]map[string]any{
		0: {"invalid_move": false, "reason": "done", "k": "v"},
	}, Details(o))
}

func TestSinglePlayer(t *testing.T) {
	cases := []struct {
		name  string
		agent domain.AgentOutcome
		want  domain.Metrics
	}{
		{"win", domain.AgentOutcome{Reward: 1}, domain.Metrics{Success: 1}},
		{"loss by reward", domain.AgentOutcome{Reward: -1}, domain.Metrics{Aborted: 1, Lose: 1}},
		{"invalid final move", domain.AgentOutcome{Reward: 0, InvalidMove: true}, domain.Metrics{Aborted: 1, Lose: 1}},
		{"partial", domain.AgentOutcome{Reward: 0.4}, domain.Metrics{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := domain.NewOutcome(map[int]domain.AgentOutcome{0: tc.agent})
			assert.Equal(t, tc.want, SinglePlayer(o, 0))
		})
	}
}

func TestTwoPlayer(t *testing.T) {
	o := domain.NewOutcome(map[int]domain.AgentOutcome{
		0: {Reward: 1},
		1: {Reward: -1, InvalidMove: true},
	})
	assert.Equal(t, domain.Metrics{Aborted: 1, Lose: 1}, TwoPlayer(o, 1))
	assert.Equal(t, domain.Metrics{Success: 1}, TwoPlayer(o, 0))
}

func TestSinglePlayerScorer(t *testing.T) {
	tr := domain.NewTranscript("s", "guess-v0")
	tr.LogKey(domain.KeyNumericReward, 0.5)
	for k, v := range (domain.Metrics{}).Keys() {
		tr.LogKey(k, v)
	}

	scores, err := SinglePlayerScorer{}.Score(tr)
	require.NoError(t, err)
	assert.Equal(t, 50.0, scores[domain.BenchScore])

	// Values decoded from JSON are float64
	tr.LogKey(domain.MetricLose, float64(1))
	scores, err = SinglePlayerScorer{}.Score(tr)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(scores[domain.BenchScore]))

	_, err = SinglePlayerScorer{}.Score(domain.NewTranscript("empty", "guess-v0"))
	assert.Error(t, err)
}

func TestTwoPlayerScorer(t *testing.T) {
	tr := domain.NewTranscript("s", "nim-v0")
	tr.LogKey(domain.KeyReward, map[string]any{"0": 1.0, "1": -1.0})

	scores, err := TwoPlayerScorer{}.Score(tr)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(scores[domain.BenchScore]))
	assert.Equal(t, 1.0, scores["ta_reward Player 0"])
	assert.Equal(t, -1.0, scores["ta_reward Player 1"])
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()

	s, err := r.Lookup("", 1)
	require.NoError(t, err)
	assert.Equal(t, "single_player", s.Name())

	s, err = r.Lookup("", 2)
	require.NoError(t, err)
	assert.Equal(t, "two_player", s.Name())

	_, err = r.Lookup("", 4)
	assert.ErrorIs(t, err, domain.ErrSetup)

	s, err = r.Lookup("two_player", 4)
	require.NoError(t, err)
	assert.Equal(t, "two_player", s.Name())

	_, err = r.Lookup("nope", 1)
	assert.ErrorIs(t, err, domain.ErrSetup)

	assert.Equal(t, []string{"single_player", "two_player"}, r.Names())
}
