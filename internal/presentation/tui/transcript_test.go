package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTranscript() *domain.Transcript {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	t := domain.NewTranscript("s-1", "nim")
	t.EnvID = "nim-v0"
	t.Seed = 42
	t.Status = domain.StatusDone
	t.StartedAt = start
	t.EndedAt = start.Add(1500 * time.Millisecond)
	t.Players = []domain.PlayerRecord{
		{ID: 0, Role: "Alice", Responder: "scripted"},
		{ID: 1, Role: "Bob", Responder: "custom"},
	}
	t.Turns = []domain.TurnRecord{
		{Round: 0, AgentID: 0, Response: "[1]"},
		{Round: 0, AgentID: 1, Response: "take | all\nnow", Violation: true},
	}
	t.Events = []domain.Event{{SenderID: domain.GameID, RecipientID: 1, Message: "[GAME] Bob wins"}}
	t.LogKey(domain.KeyViolationCount, 1)
	t.LogKey(domain.KeyReward, map[int]float64{0: -1, 1: 1})
	return t
}

func TestTranscriptMarkdown(t *testing.T) {
	md := TranscriptMarkdown(sampleTranscript())

	assert.True(t, strings.HasPrefix(md, "# nim\n"))
	assert.Contains(t, md, "- **Session:** `s-1`")
	assert.Contains(t, md, "- **Duration:** 1.5s")
	assert.Contains(t, md, "| 1 | Bob | custom |")
	assert.Contains(t, md, "| 0 | Alice | [1] |  |")
	assert.Contains(t, md, `| 0 | Bob | take \| all now | yes |`)
	assert.Contains(t, md, "- to Bob: [GAME] Bob wins")
	assert.Contains(t, md, "| Violated Request Count | 1 |")
	assert.NotContains(t, md, "Experiment")

	// Keys are sorted.
	assert.Less(t, strings.Index(md, "| Violated Request Count"), strings.Index(md, "| ta_reward"))
}

func TestTranscriptMarkdown_Empty(t *testing.T) {
	md := TranscriptMarkdown(domain.NewTranscript("s-2", "guess"))
	assert.Contains(t, md, "not_started")
	assert.NotContains(t, md, "## Turns")
	assert.NotContains(t, md, "## Keys")
}

func TestPrintTranscript(t *testing.T) {
	var plain bytes.Buffer
	require.NoError(t, PrintTranscript(&plain, sampleTranscript(), false))
	assert.Equal(t, TranscriptMarkdown(sampleTranscript()), plain.String())

	var pretty bytes.Buffer
	require.NoError(t, PrintTranscript(&pretty, sampleTranscript(), true))
	assert.Contains(t, pretty.String(), "Alice")
}

func TestSummary(t *testing.T) {
	assert.Contains(t, Summary("s-1", domain.Metrics{Aborted: 1, Lose: 1}, 2), "aborted")
	assert.Contains(t, Summary("s-1", domain.Metrics{Success: 1}, 0), "success")
	assert.Contains(t, Summary("s-1", domain.Metrics{}, 0), "draw")
	assert.Contains(t, Summary("s-1", domain.Metrics{}, 3), "violations: 3")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
}
