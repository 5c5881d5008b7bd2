package ports

import (
	"context"

	"github.com/aretw0/turnstile/pkg/domain"
)

// TranscriptStore defines the interface for persisting session transcripts.
// Finished (or aborted) sessions are kept for inspection and scoring.
type TranscriptStore interface {
	// Save persists the transcript under the given session ID.
	Save(ctx context.Context, sessionID string, transcript *domain.Transcript) error

	// Load retrieves the transcript for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Transcript, error)

	// Delete removes the transcript for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
