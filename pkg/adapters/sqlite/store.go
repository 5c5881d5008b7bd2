package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/turnstile/pkg/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS transcripts (
	session_id  TEXT PRIMARY KEY,
	game        TEXT NOT NULL,
	experiment  TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	ended_at    INTEGER NOT NULL DEFAULT 0,
	body        BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS transcripts_game ON transcripts (game, experiment);
`

// Store implements ports.TranscriptStore on a SQLite database.
// The transcript is stored as JSON; game, experiment and status are
// columns so benchmarks can be queried without decoding bodies.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) a SQLite transcript database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save upserts a transcript.
func (s *Store) Save(ctx context.Context, sessionID string, t *domain.Transcript) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	var endedAt int64
	if !t.EndedAt.IsZero() {
		endedAt = t.EndedAt.UnixMilli()
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO transcripts (session_id, game, experiment, status, started_at, ended_at, body)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
			game = excluded.game,
			experiment = excluded.experiment,
			status = excluded.status,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			body = excluded.body`,
		sessionID, t.Game, t.Experiment, string(t.Status), t.StartedAt.UnixMilli(), endedAt, body,
	)
	if err != nil {
		return fmt.Errorf("put transcript: %w", err)
	}
	return nil
}

// Load retrieves a transcript.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Transcript, error) {
	var body []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT body FROM transcripts WHERE session_id = ?`, sessionID,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get transcript: %w", err)
	}

	var t domain.Transcript
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}
	return &t, nil
}

// Delete removes a transcript.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM transcripts WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	return nil
}

// List returns all stored session IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.query(ctx, `SELECT session_id FROM transcripts ORDER BY session_id`)
}

// ListByGame returns the sessions of one game, optionally narrowed to an experiment.
func (s *Store) ListByGame(ctx context.Context, game, experiment string) ([]string, error) {
	if experiment == "" {
		return s.query(ctx, `SELECT session_id FROM transcripts WHERE game = ? ORDER BY session_id`, game)
	}
	return s.query(ctx,
		`SELECT session_id FROM transcripts WHERE game = ? AND experiment = ? ORDER BY session_id`,
		game, experiment)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan transcript id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
