package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractTranscript(sessionID string) *domain.Transcript {
	tr := domain.NewTranscript(sessionID, "nim-v0")
	tr.EnvID = "nim-v0"
	tr.Seed = 525119131
	tr.Status = domain.StatusDone
	tr.Players = []domain.PlayerRecord{
		{ID: 0, Role: "Player 0", Responder: "scripted"},
		{ID: 1, Role: "Player 1", Responder: "scripted"},
	}
	tr.Turns = []domain.TurnRecord{
		{Round: 0, AgentID: 0, Context: "take", Response: "[2]"},
		{Round: 0, AgentID: 1, Context: "take", Response: "[9]", Violation: true},
	}
	tr.LogKey(domain.KeyViolationCount, 1)
	tr.LogKey("note", "contract")
	return tr
}

// RunTranscriptStoreContract runs a suite of tests to verify that a TranscriptStore
// implementation adheres to the defined interface contract.
func RunTranscriptStoreContract(t *testing.T, store TranscriptStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		tr := contractTranscript(sessionID)

		err := store.Save(ctx, sessionID, tr)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, tr.SessionID, loaded.SessionID)
		assert.Equal(t, tr.Game, loaded.Game)
		assert.Equal(t, tr.Seed, loaded.Seed)
		assert.Equal(t, domain.StatusDone, loaded.Status)
		assert.Equal(t, tr.Players, loaded.Players)
		require.Len(t, loaded.Turns, 2)
		assert.Equal(t, "[9]", loaded.Turns[1].Response)
		assert.True(t, loaded.Turns[1].Violation)
		assert.Equal(t, "contract", loaded.Keys["note"])
		// Numbers may come back as float64 through JSON backends.
		assert.NotNil(t, loaded.Keys[domain.KeyViolationCount])
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		tr := contractTranscript(sessionID)
		tr.LogKey("note", "second")
		require.NoError(t, store.Save(ctx, sessionID, tr))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "second", loaded.Keys["note"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, contractTranscript(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, contractTranscript(id1))
		_ = store.Save(ctx, id2, contractTranscript(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
