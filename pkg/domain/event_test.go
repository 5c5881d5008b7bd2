package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventLog_AppendAndSince(t *testing.T) {
	log := NewEventLog()
	log.Append(GameID, Broadcast, KindNarration, "welcome")
	log.Append(GameID, 1, KindNarration, "your turn")
	log.Append(1, Broadcast, KindAgentAction, "[3]")

	assert.Equal(t, 3, log.Len())

	tail := log.Since(1)
	assert.Len(t, tail, 2)
	assert.Equal(t, 1, tail[0].Seq)
	assert.Equal(t, 2, tail[1].Seq)

	assert.Nil(t, log.Since(3))
	assert.Len(t, log.Since(-5), 3)

	// Since returns a copy
	tail[0].Message = "mutated"
	assert.Equal(t, "your turn", log.Since(1)[0].Message)
}

func TestVisible(t *testing.T) {
	log := NewEventLog()
	log.Append(GameID, Broadcast, KindNarration, "all")
	log.Append(GameID, 0, KindNarration, "only zero")
	log.Append(GameID, 1, KindNarration, "only one")

	zero := Visible(0, log.Since(0))
	assert.Len(t, zero, 2)
	assert.Equal(t, "all", zero[0].Message)
	assert.Equal(t, "only zero", zero[1].Message)

	one := Visible(1, log.Since(0))
	assert.Len(t, one, 2)
	assert.Equal(t, "only one", one[1].Message)
}

func TestOutcome_Immutable(t *testing.T) {
	extra := map[string]any{"turns": 3}
	o := NewOutcome(map[int]AgentOutcome{
		0: {Reward: 1, Reason: "won", Extra: extra},
		1: {Reward: -1, Reason: "lost"},
	})

	extra["turns"] = 99
	a, ok := o.Agent(0)
	assert.True(t, ok)
	assert.Equal(t, 3, a.Extra["turns"])

	a.Extra["turns"] = 100
	again, _ := o.Agent(0)
	assert.Equal(t, 3, again.Extra["turns"])

	assert.Equal(t, []int{0, 1}, o.AgentIDs())
	assert.Equal(t, map[int]float64{0: 1, 1: -1}, o.Rewards())

	_, ok = o.Agent(7)
	assert.False(t, ok)
}

func TestSessionError(t *testing.T) {
	err := NewSessionError(ErrProtocolViolation, "s-1", "nim-v0", ErrSetup)

	assert.ErrorIs(t, err, ErrProtocolViolation)
	assert.ErrorIs(t, err, ErrSetup)
	assert.ErrorIs(t, err, &SessionError{Kind: ErrProtocolViolation})
	assert.NotErrorIs(t, err, ErrAgentInvocation)
	assert.Contains(t, err.Error(), "s-1")
	assert.Contains(t, err.Error(), "nim-v0")
}
