package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aretw0/turnstile/internal/testutils"
	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("process fixtures use sh")
	}
}

func history(content string) []domain.Message {
	return []domain.Message{{Role: domain.RoleUser, Content: content}}
}

func TestResponder_ReadsStdout(t *testing.T) {
	skipWithoutShell(t)
	r := New(AgentConfig{Name: "echo", Command: "sh", Args: []string{"-c", "echo '  [3]  '"}})

	resp, err := r.Respond(context.Background(), history("your move"))
	require.NoError(t, err)
	assert.Equal(t, "[3]", resp)
	assert.Equal(t, "process/echo", r.Name())
}

func TestResponder_PassesPromptAndRole(t *testing.T) {
	skipWithoutShell(t)
	r := New(AgentConfig{
		Name:        "env",
		Command:     "sh",
		Args:        []string{"-c", `echo "$GREETING $TURNSTILE_ROLE: $TURNSTILE_PROMPT"`},
		Environment: map[string]string{"GREETING": "hi"},
	}, WithRole("Alice"))

	resp, err := r.Respond(context.Background(), history("5 stones left"))
	require.NoError(t, err)
	assert.Equal(t, "hi Alice: 5 stones left", resp)
}

func TestResponder_HistoryOnStdin(t *testing.T) {
	skipWithoutShell(t)
	r := New(AgentConfig{Name: "cat", Command: "cat"}, WithRole("Bob"))

	resp, err := r.Respond(context.Background(), history("ping"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"Bob","history":[{"role":"user","content":"ping"}]}`, resp)
}

func TestResponder_UnwrapsJSONResponse(t *testing.T) {
	skipWithoutShell(t)
	r := New(AgentConfig{Name: "json", Command: "sh", Args: []string{"-c", `echo '{"response": "[7]", "thoughts": "x"}'`}})

	resp, err := r.Respond(context.Background(), history("go"))
	require.NoError(t, err)
	assert.Equal(t, "[7]", resp)
}

func TestResponder_FailureIncludesStderr(t *testing.T) {
	skipWithoutShell(t)
	r := New(AgentConfig{Name: "fail", Command: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}})

	_, err := r.Respond(context.Background(), history("go"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestResponder_WorkingDirectory(t *testing.T) {
	skipWithoutShell(t)
	dir := testutils.SetupTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "move.txt"), []byte("[2]\n"), 0o644))
	r := New(AgentConfig{Name: "dir", Command: "cat", Args: []string{"move.txt"}}, WithBaseDir(dir))

	resp, err := r.Respond(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "[2]", resp)
}

func TestLoadAgents(t *testing.T) {
	dir := testutils.SetupTempDir(t)

	agents, err := LoadAgents(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, agents)

	yamlPath := filepath.Join(dir, "agents.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`agents:
  - name: bot
    command: ./bot
    args: ["--fast"]
    env:
      LEVEL: "3"
  - name: nameless-command
  - command: ./orphan
`), 0o644))
	agents, err = LoadAgents(yamlPath)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, []string{"--fast"}, agents["bot"].Args)
	assert.Equal(t, "3", agents["bot"].Environment["LEVEL"])

	jsonPath := filepath.Join(dir, "agents.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"agents":[{"name":"js","command":"node"}]}`), 0o644))
	agents, err = LoadAgents(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "node", agents["js"].Command)

	_, err = Lookup(agents, "missing")
	assert.ErrorContains(t, err, "not registered")
	r, err := Lookup(agents, "js", WithRole("Alice"))
	require.NoError(t, err)
	assert.Equal(t, "process/js", r.Name())

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("agents: [unclosed"), 0o644))
	_, err = LoadAgents(bad)
	assert.Error(t, err)
}
