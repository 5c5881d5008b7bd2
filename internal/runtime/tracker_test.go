package runtime

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logSource struct {
	log   *domain.EventLog
	roles map[int]string
}

func (s *logSource) Observe(since int) []domain.Event { return s.log.Since(since) }
func (s *logSource) RoleNames() map[int]string        { return s.roles }

func newLogSource() *logSource {
	return &logSource{log: domain.NewEventLog(), roles: map[int]string{domain.GameID: "GAME"}}
}

func TestTracker_FirstObservationHasPreamble(t *testing.T) {
	src := newLogSource()
	src.log.Append(domain.GameID, 0, domain.KindNarration, "Your turn")
	tr := NewTracker(src)

	first := tr.ObservationFor(0)
	assert.Equal(t, domain.RoleUser, first.Role)
	assert.True(t, strings.HasPrefix(first.Content, domain.StandardGamePrompt+"\n\n"))
	assert.Contains(t, first.Content, "[GAME] Your turn\n")

	src.log.Append(domain.GameID, 0, domain.KindNarration, "Again")
	second := tr.ObservationFor(0)
	assert.Equal(t, "[GAME] Again\n", second.Content)

	// Nothing new: empty content, cursor unchanged
	third := tr.ObservationFor(0)
	assert.Empty(t, third.Content)
	assert.Equal(t, 2, tr.Cursor(0))
}

func TestTracker_PreambleEvenWhenLogIsEmpty(t *testing.T) {
	tr := NewTracker(newLogSource())

	msg := tr.ObservationFor(3)
	assert.Equal(t, domain.StandardGamePrompt+"\n\n", msg.Content)
	assert.Equal(t, "", tr.ObservationFor(3).Content)
}

func TestTracker_SkipsOwnActionsAndFallsBackToPlayerName(t *testing.T) {
	src := newLogSource()
	src.roles[1] = "Challenger"
	tr := NewTracker(src)
	_ = tr.ObservationFor(0)
	_ = tr.ObservationFor(1)

	src.log.Append(0, domain.Broadcast, domain.KindAgentAction, "[2]")
	src.log.Append(1, domain.Broadcast, domain.KindAgentAction, "[3]")
	src.log.Append(0, domain.Broadcast, domain.KindNarration, "a remark")

	zero := tr.ObservationFor(0)
	assert.Equal(t, "[Challenger] [3]\n[Player 0] a remark\n", zero.Content)

	one := tr.ObservationFor(1)
	assert.Equal(t, "[Player 0] [2]\n[Player 0] a remark\n", one.Content)
}

func TestTracker_HidesPrivateEvents(t *testing.T) {
	src := newLogSource()
	tr := NewTracker(src)
	_ = tr.ObservationFor(1)

	src.log.Append(domain.GameID, 0, domain.KindNarration, "secret for zero")
	src.log.Append(domain.GameID, 1, domain.KindNarration, "secret for one")

	msg := tr.ObservationFor(1)
	assert.NotContains(t, msg.Content, "secret for zero")
	assert.Contains(t, msg.Content, "secret for one")
	// The cursor still covers the hidden event
	assert.Equal(t, 2, tr.Cursor(1))
}

func TestTracker_CursorsAreMonotonicAndDeliverEachVisibleEventOnce(t *testing.T) {
	const agents = 3
	rng := rand.New(rand.NewSource(42))
	src := newLogSource()
	tr := NewTracker(src)

	delivered := make(map[int][]domain.Event)
	last := make(map[int]int)

	for i := 0; i < 500; i++ {
		if rng.Intn(3) == 0 {
			agent := rng.Intn(agents)
			events, _ := tr.next(agent)
			delivered[agent] = append(delivered[agent], events...)

			cursor := tr.Cursor(agent)
			require.GreaterOrEqual(t, cursor, last[agent], "cursor must never move backwards")
			require.LessOrEqual(t, cursor, src.log.Len(), "cursor must never exceed the log")
			last[agent] = cursor
			continue
		}

		kinds := []domain.EventKind{domain.KindNarration, domain.KindAgentAction, domain.KindSystem}
		sender := rng.Intn(agents+1) - 1
		recipient := rng.Intn(agents+1) - 1
		src.log.Append(sender, recipient, kinds[rng.Intn(len(kinds))], "m")
	}

	for agent := 0; agent < agents; agent++ {
		events, _ := tr.next(agent)
		delivered[agent] = append(delivered[agent], events...)

		var want []int
		for _, e := range src.log.Since(0) {
			if !e.VisibleTo(agent) || (e.Kind == domain.KindAgentAction && e.SenderID == agent) {
				continue
			}
			want = append(want, e.Seq)
		}
		var got []int
		for _, e := range delivered[agent] {
			got = append(got, e.Seq)
		}
		assert.Equal(t, want, got, "agent %d", agent)
		assert.Equal(t, src.log.Len(), tr.Cursor(agent))
	}
}
