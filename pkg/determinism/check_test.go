package determinism_test

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/aretw0/turnstile"
	"github.com/aretw0/turnstile/internal/testutils"
	"github.com/aretw0/turnstile/pkg/adapters/lua"
	"github.com/aretw0/turnstile/pkg/adapters/memory"
	"github.com/aretw0/turnstile/pkg/agent"
	"github.com/aretw0/turnstile/pkg/determinism"
	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/aretw0/turnstile/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func luaEngine(t *testing.T) *turnstile.Engine {
	t.Helper()
	entries, err := lua.Builtins()
	require.NoError(t, err)
	reg, err := registry.NewRegistry(entries...)
	require.NoError(t, err)
	eng, err := turnstile.New(reg)
	require.NoError(t, err)
	return eng
}

func TestNormalize(t *testing.T) {
	in := []byte("{\n  \"a\": 1,\n  \"timestamp\": \"2026-01-01\",\n  \"start_timestamp\": \"x\",\n  \"b\": 2\n}")
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": 2\n}", string(determinism.Normalize(in)))
}

func TestCheck_SameSeedSameResponses(t *testing.T) {
	eng := luaEngine(t)
	report, err := determinism.Check(context.Background(), eng, func() (turnstile.SessionConfig, error) {
		return turnstile.SessionConfig{
			EnvID: "guess-v0",
			Seed:  525119131,
			Players: []turnstile.PlayerConfig{{
				Responder: agent.NewCustom([]string{"[3]", "[10]", "[17]", "maybe"}, 525119131),
			}},
		}, nil
	})
	require.NoError(t, err)
	assert.True(t, report.Deterministic)
	assert.Equal(t, "guess-v0", report.Game)
	assert.Equal(t, report.First.Transcript, report.Second.Transcript)
	assert.Equal(t, report.First.Events, report.Second.Events)
	assert.NotContains(t, string(report.First.Transcript), "timestamp")
	assert.Contains(t, string(report.First.Transcript), "determinism-check")
}

func TestCheck_RunsPersistUnderDistinctIDs(t *testing.T) {
	entries, err := lua.Builtins()
	require.NoError(t, err)
	reg, err := registry.NewRegistry(entries...)
	require.NoError(t, err)
	eng, err := turnstile.New(reg, turnstile.WithStore(memory.NewStore()))
	require.NoError(t, err)

	report, err := determinism.Check(context.Background(), eng, func() (turnstile.SessionConfig, error) {
		return turnstile.SessionConfig{
			SessionID: "nim-check",
			EnvID:     "nim-v0",
			Seed:      1,
			Players: []turnstile.PlayerConfig{
				{Responder: agent.NewScripted("[1]")},
				{Responder: agent.NewScripted("[3]")},
			},
		}, nil
	})
	require.NoError(t, err)
	assert.True(t, report.Deterministic, "run ids are not part of the comparison")

	ids, err := eng.Sessions().List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"nim-check-1", "nim-check-2"}, ids)
}

func TestCheck_DetectsDivergence(t *testing.T) {
	eng := luaEngine(t)
	var runs atomic.Int32
	report, err := determinism.Check(context.Background(), eng, func() (turnstile.SessionConfig, error) {
		// Each run plays a different opening.
		opening := "[1]"
		if runs.Add(1) == 2 {
			opening = "[2]"
		}
		return turnstile.SessionConfig{
			EnvID: "nim-v0",
			Seed:  1,
			Players: []turnstile.PlayerConfig{
				{Responder: agent.NewScripted(opening)},
				{Responder: agent.NewScripted("[3]")},
			},
		}, nil
	})
	require.NoError(t, err)
	assert.False(t, report.Deterministic)
}

func TestCheck_PropagatesSetupErrors(t *testing.T) {
	_, err := determinism.Check(context.Background(), luaEngine(t), func() (turnstile.SessionConfig, error) {
		return turnstile.SessionConfig{EnvID: "chess-v0"}, nil
	})
	assert.ErrorIs(t, err, domain.ErrSetup)
}

func TestTranscripts(t *testing.T) {
	a := domain.NewTranscript("s1", "nim")
	b := a.Clone()
	same, err := determinism.Transcripts(a, b)
	require.NoError(t, err)
	assert.True(t, same, "a fresh transcript equals its clone")

	b.StartedAt = b.StartedAt.AddDate(1, 0, 0)
	same, err = determinism.Transcripts(a, b)
	require.NoError(t, err)
	assert.True(t, same, "timestamps are ignored")

	b.LogKey("extra", 1)
	same, err = determinism.Transcripts(a, b)
	require.NoError(t, err)
	assert.False(t, same)
}

func TestResults_RoundTrip(t *testing.T) {
	path := filepath.Join(testutils.SetupTempDir(t), "results", "determinism.json")

	r, err := determinism.LoadResults(path)
	require.NoError(t, err)
	assert.False(t, r.Tested("nim-v0", "scripted"))

	r.Record("nim-v0", "scripted", true)
	r.Record("guess-v0", "openai/gpt-4o-mini", false)
	require.NoError(t, r.Save())

	again, err := determinism.LoadResults(path)
	require.NoError(t, err)
	assert.True(t, again.Tested("nim-v0", "scripted"))
	ok, found := again.Verdict("guess-v0", "openai/gpt-4o-mini")
	assert.True(t, found)
	assert.False(t, ok)
}
