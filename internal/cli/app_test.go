package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/turnstile/internal/config"
	"github.com/aretw0/turnstile/internal/logging"
	"github.com/aretw0/turnstile/internal/testutils"
	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nimSpec = `game_name: nim
env_id: nim-v0
players: 2
instances:
  short:
    - game_id: 0
      seed: 11
      player_specs:
        - {role: Alice, custom_response: ["[3]"]}
        - {role: Bob, custom_response: ["[1]"]}
      env_specs: {pile: 4}
    - game_id: 1
      seed: 12
      player_specs:
        - {role: Alice, custom_response: ["[1]"]}
        - {role: Bob, custom_response: ["[3]"]}
      env_specs: {pile: 4}
`

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	dir := testutils.SetupTempDir(t)
	games := filepath.Join(dir, "games")
	require.NoError(t, os.MkdirAll(games, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(games, "nim.yaml"), []byte(nimSpec), 0o644))

	s := config.Settings{Store: config.StoreMemory, DataDir: dir, GamesDir: games}
	var out bytes.Buffer
	console := &Console{In: bufio.NewReader(strings.NewReader("")), Out: &out}
	app, err := NewApp(s, logging.NewNop(), console)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	return app, &out
}

func TestApp_RunEnvironmentWithoutSpec(t *testing.T) {
	app, out := newTestApp(t)

	summaries, err := app.Run(context.Background(), RunOptions{
		Game:       "nim-v0",
		Models:     []string{"scripted:[1]|[2]", "scripted:[9]|[1]"},
		EnvOptions: map[string]any{"pile": 4},
		SessionID:  "adhoc-1",
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, "adhoc-1", s.SessionID)
	assert.Equal(t, "adhoc", s.Experiment)
	assert.Equal(t, 1, s.Violations)
	assert.Equal(t, domain.Metrics{Success: 1}, s.Metrics)
	assert.Equal(t, map[int]float64{0: 1, 1: -1}, s.Rewards)
	assert.Contains(t, out.String(), ">>> nim-v0/adhoc #0: adhoc-1")

	ids, err := app.ListSessions(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"adhoc-1"}, ids)
}

func TestApp_RunSpecJSON(t *testing.T) {
	app, out := newTestApp(t)

	summaries, err := app.Run(context.Background(), RunOptions{Game: "nim", JSON: true})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Alice takes 3, Bob takes the last stone; then the reverse.
	assert.Equal(t, map[int]float64{0: -1, 1: 1}, summaries[0].Rewards)
	assert.Equal(t, map[int]float64{0: -1, 1: 1}, summaries[1].Rewards)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	var decoded RunSummary
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &decoded))
	assert.Equal(t, "short", decoded.Experiment)
	assert.Equal(t, 1, decoded.GameID)

	summaries, err = app.Run(context.Background(), RunOptions{Game: "nim", GameIDs: []int{1}, Quiet: true})
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestApp_RunErrors(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	_, err := app.Run(ctx, RunOptions{Game: "chess"})
	assert.ErrorContains(t, err, "unknown game")

	_, err = app.Run(ctx, RunOptions{Game: "nim", SessionID: "one"})
	assert.ErrorContains(t, err, "single instance")

	_, err = app.Run(ctx, RunOptions{Game: "nim", Experiment: "long"})
	assert.ErrorContains(t, err, "no experiment")

	_, err = app.Run(ctx, RunOptions{Game: "nim-v0", Models: []string{"mock", "mock", "mock"}})
	assert.ErrorContains(t, err, "2 seats but 3 models")
}

func TestApp_Games(t *testing.T) {
	app, _ := newTestApp(t)
	games, err := app.Games(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, "guess-v0", games[0].ID)
	assert.Equal(t, []string{"[n]"}, games[0].Commands)
	assert.Equal(t, "nim-v0", games[1].ID)
	assert.Equal(t, []string{"[k]"}, games[1].Commands)
	assert.Equal(t, []string{"nim"}, games[1].Specs)

	var buf bytes.Buffer
	PrintGames(&buf, games)
	assert.Contains(t, buf.String(), "nim-v0\t2 players")
	assert.Contains(t, buf.String(), "commands: [[k]]")
}

func TestPossibleCommands(t *testing.T) {
	assert.Equal(t, []string{"[k]", "[pass]"}, PossibleCommands("take [k] or [pass], then [k] again"))
	assert.Empty(t, PossibleCommands("no commands [] here"))
}

func TestApp_Sessions(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()
	_, err := app.Run(ctx, RunOptions{Game: "nim", Quiet: true})
	require.NoError(t, err)
	_, err = app.Run(ctx, RunOptions{Game: "guess-v0", SessionID: "g-1", Quiet: true})
	require.NoError(t, err)

	all, err := app.ListSessions(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	nim, err := app.ListSessions(ctx, "nim", "short")
	require.NoError(t, err)
	assert.Len(t, nim, 2)
	assert.NotContains(t, nim, "g-1")

	var buf bytes.Buffer
	require.NoError(t, app.InspectSession(ctx, &buf, "g-1", FormatJSON))
	var tr domain.Transcript
	require.NoError(t, json.Unmarshal(buf.Bytes(), &tr))
	assert.Equal(t, "guess-v0", tr.Game)

	buf.Reset()
	require.NoError(t, app.InspectSession(ctx, &buf, "g-1", FormatMarkdown))
	assert.Contains(t, buf.String(), "# guess-v0")

	buf.Reset()
	require.NoError(t, app.InspectSession(ctx, &buf, "g-1", FormatMermaid))
	assert.Contains(t, buf.String(), "sequenceDiagram")
	assert.ErrorContains(t, app.InspectSession(ctx, &buf, "g-1", "yaml"), "unknown format")

	buf.Reset()
	err = app.RemoveSessions(ctx, &buf, []string{"g-1", "missing"})
	assert.ErrorContains(t, err, "1 of 2")
	assert.Contains(t, buf.String(), "Removed session 'g-1'")
	assert.Contains(t, buf.String(), "Error removing 'missing'")

	assert.ErrorIs(t, app.InspectSession(ctx, &buf, "g-1", FormatJSON), domain.ErrSessionNotFound)
}

func TestApp_CheckDeterminism(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()
	path := filepath.Join(app.Settings.DataDir, "results", "check.json")

	var buf bytes.Buffer
	verdicts, err := app.CheckDeterminism(ctx, &buf, DeterminismOptions{Games: []string{"guess-v0", "nim"}, ResultsPath: path})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"guess-v0": true, "nim": true}, verdicts)
	assert.Contains(t, buf.String(), "guess-v0: deterministic")
	assert.FileExists(t, path)

	// Recorded games are skipped unless overwritten.
	buf.Reset()
	verdicts, err = app.CheckDeterminism(ctx, &buf, DeterminismOptions{Games: []string{"guess-v0"}, ResultsPath: path})
	require.NoError(t, err)
	assert.True(t, verdicts["guess-v0"])
	assert.Empty(t, buf.String())

	// Nothing was persisted.
	ids, err := app.ListSessions(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestApp_Handler(t *testing.T) {
	app, _ := newTestApp(t)
	h, err := app.Handler()
	require.NoError(t, err)

	body := `{"env_id":"guess-v0","seed":5,"players":[{"responder":"mock"}]}`
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/sessions", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "turnstile_sessions_total")
}
