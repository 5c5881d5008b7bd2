package turnstile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/turnstile/internal/runtime"
	"github.com/aretw0/turnstile/pkg/agent"
	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/aretw0/turnstile/pkg/outcome"
	"github.com/aretw0/turnstile/pkg/ports"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PlayerConfig seats one agent.
type PlayerConfig struct {
	Role      string // Defaults to "Player <i>"
	Responder agent.Responder
}

// SessionConfig describes one episode.
type SessionConfig struct {
	SessionID  string // Generated when empty
	Game       string // Defaults to EnvID
	EnvID      string
	Experiment string
	Master     string // Variant name; required for more than two players
	Scorer     string // Scorer name; required for more than two players
	Seed       int64
	Players    []PlayerConfig
	EnvOptions map[string]any
}

// Result summarizes a finished session.
type Result struct {
	SessionID  string
	Outcome    domain.Outcome
	Metrics    domain.Metrics
	Rounds     int
	Violations int
	Scores     map[string]float64 // Scorer output; may hold NaN
	Transcript *domain.Transcript
}

// Session is one episode between a set of agents and an environment.
// A Session is driven by a single goroutine: Play, or Observe and Step in turn.
type Session struct {
	id      string
	game    string
	engine  *Engine
	variant Variant
	scorer  outcome.Scorer
	logger  *slog.Logger

	env     *runtime.GuardedEnv
	tracker *runtime.Tracker
	machine *runtime.Machine
	agents  []*agent.Agent

	transcript *domain.Transcript
	gm         *domain.EventLog // Narration authored by the master

	pending      *domain.Message // Observation handed out and not yet answered
	pendingAgent int
	lastInvoke   time.Duration
	closed       bool
	aborted      error
	result       *Result
}

// NewSession validates the roster, resets the environment and returns a
// session ready for its first turn. All failures wrap domain.ErrSetup.
func (e *Engine) NewSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	id := cfg.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	game := cfg.Game
	if game == "" {
		game = cfg.EnvID
	}
	setupErr := func(err error) error {
		return domain.NewSessionError(domain.ErrSetup, id, game, err)
	}

	n := len(cfg.Players)
	if n == 0 {
		return nil, setupErr(errors.New("session needs at least one player"))
	}
	variant, err := e.variant(cfg.Master, n)
	if err != nil {
		return nil, setupErr(err)
	}
	scorer, err := e.scorers.Lookup(cfg.Scorer, n)
	if err != nil {
		return nil, setupErr(err)
	}
	env, err := e.registry.Make(cfg.EnvID, cfg.EnvOptions)
	if err != nil {
		return nil, setupErr(err)
	}
	if entry, ok := e.registry.Lookup(cfg.EnvID); ok && entry.Players > 0 && entry.Players != n {
		return nil, setupErr(fmt.Errorf("environment %s needs %d players, got %d", cfg.EnvID, entry.Players, n))
	}

	agents := make([]*agent.Agent, n)
	players := make([]domain.PlayerRecord, n)
	for i, p := range cfg.Players {
		if p.Responder == nil {
			return nil, setupErr(fmt.Errorf("player %d has no responder", i))
		}
		role := p.Role
		if role == "" {
			role = fmt.Sprintf("Player %d", i)
		}
		agents[i] = agent.New(i, role, p.Responder)
		players[i] = domain.PlayerRecord{ID: i, Role: role, Responder: p.Responder.Name()}
	}

	guarded := runtime.Guard(env)
	s := &Session{
		id:         id,
		game:       game,
		engine:     e,
		variant:    variant,
		scorer:     scorer,
		logger:     e.logger.With("game", game, "session_id", id),
		env:        guarded,
		tracker:    runtime.NewTracker(guarded),
		machine:    runtime.NewMachine(guarded, n),
		agents:     agents,
		transcript: domain.NewTranscript(id, game),
		gm:         domain.NewEventLog(),
	}
	s.transcript.EnvID = cfg.EnvID
	s.transcript.Experiment = cfg.Experiment
	s.transcript.Seed = cfg.Seed
	s.transcript.Players = players
	s.transcript.StartedAt = time.Now().UTC()

	if variant.OnBeforeReset != nil {
		if err := variant.OnBeforeReset(ctx, s); err != nil {
			return nil, setupErr(fmt.Errorf("master %s: %w", variant.Name, err))
		}
	}
	if err := guarded.Reset(ctx, n, cfg.Seed); err != nil {
		return nil, setupErr(err)
	}
	if err := s.machine.Start(); err != nil {
		return nil, setupErr(err)
	}
	s.transcript.Status = domain.StatusInProgress

	s.logger.Info("Session started",
		"env_id", cfg.EnvID,
		"experiment", cfg.Experiment,
		"players", n,
		"master", variant.Name,
		"seed", cfg.Seed,
	)

	if variant.OnBeforeGame != nil {
		if err := variant.OnBeforeGame(ctx, s); err != nil {
			return nil, setupErr(fmt.Errorf("master %s: %w", variant.Name, err))
		}
	}
	return s, nil
}

func (s *Session) ID() string   { return s.id }
func (s *Session) Game() string { return s.game }

// Status is the lifecycle position of the session.
func (s *Session) Status() domain.SessionStatus { return s.machine.Status() }

// Round is the number of completed rounds.
func (s *Session) Round() int { return s.machine.Round() }

// Violations is the number of request violations so far.
func (s *Session) Violations() int { return s.machine.Violations() }

// Agents returns the seated agents, indexed by id.
func (s *Session) Agents() []*agent.Agent {
	out := make([]*agent.Agent, len(s.agents))
	copy(out, s.agents)
	return out
}

// Environment exposes the environment, e.g. to a master hook.
func (s *Session) Environment() ports.Environment { return s.env.Unwrap() }

// CurrentAgent returns the agent the environment expects to act.
func (s *Session) CurrentAgent() (*agent.Agent, bool) {
	return s.agent(s.env.CurrentAgentID())
}

// LogKey records a value in the transcript.
func (s *Session) LogKey(key string, value any) {
	s.transcript.LogKey(key, value)
}

// Transcript returns a copy of the transcript so far.
func (s *Session) Transcript() *domain.Transcript {
	return s.transcript.Clone()
}

// Result is available once the session is done.
func (s *Session) Result() (*Result, bool) {
	return s.result, s.result != nil
}

func (s *Session) agent(id int) (*agent.Agent, bool) {
	if id < 0 || id >= len(s.agents) {
		return nil, false
	}
	return s.agents[id], true
}

func (s *Session) errorf(kind error, format string, args ...any) error {
	return domain.NewSessionError(kind, s.id, s.game, fmt.Errorf(format, args...))
}

func (s *Session) ready() error {
	if s.aborted != nil {
		return domain.NewSessionError(domain.ErrProtocolViolation, s.id, s.game, fmt.Errorf("session aborted: %w", s.aborted))
	}
	if st := s.machine.Status(); st != domain.StatusInProgress {
		return s.errorf(domain.ErrProtocolViolation, "session is %s", st)
	}
	return nil
}

// Observe returns the agent expected to act and the events it has not seen yet.
// Each event is handed to an agent at most once.
func (s *Session) Observe() (*agent.Agent, domain.Message, error) {
	if err := s.ready(); err != nil {
		return nil, domain.Message{}, err
	}
	id := s.env.CurrentAgentID()
	a, ok := s.agent(id)
	if !ok {
		return nil, domain.Message{}, s.errorf(domain.ErrProtocolViolation, "environment handed the turn to unseated agent %d", id)
	}
	msg := s.tracker.ObservationFor(id)
	s.pending = &msg
	s.pendingAgent = id
	s.logger.Debug("Context", "agent", id, "content", msg.Content)
	return a, msg, nil
}

// Step submits the current agent's response to the environment and updates
// the turn state. When the game ends the environment is closed and the
// outcome logged before Step returns done=true.
func (s *Session) Step(ctx context.Context, response string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}

	actor := s.env.CurrentAgentID()
	round := s.machine.Round()
	var observed string
	if s.pending != nil && s.pendingAgent == actor {
		observed = s.pending.Content
	}
	s.pending = nil

	done, info, err := s.env.Step(ctx, response)
	if err != nil {
		kind := domain.ErrEnvironment
		if errors.Is(err, domain.ErrProtocolViolation) {
			kind = domain.ErrProtocolViolation
		}
		return false, s.fail(ctx, kind, err)
	}
	violation, err := s.machine.Record(actor, done)
	if err != nil {
		return false, s.fail(ctx, domain.ErrProtocolViolation, err)
	}

	s.transcript.Turns = append(s.transcript.Turns, domain.TurnRecord{
		Round:     round,
		AgentID:   actor,
		Context:   observed,
		Response:  response,
		Violation: violation,
		Done:      done,
		Info:      info,
		Timestamp: time.Now().UTC(),
	})
	s.logger.Info("Player response", "agent", actor, "round", round, "response", response)
	if len(info) > 0 {
		s.logger.Info("Game info", "agent", actor, "info", info)
	}

	ev := &domain.TurnEvent{
		SessionID: s.id,
		Game:      s.game,
		AgentID:   actor,
		Round:     round,
		Violation: violation,
		Done:      done,
		Duration:  s.lastInvoke,
	}
	s.lastInvoke = 0
	if s.engine.hooks.OnTurn != nil {
		s.engine.hooks.OnTurn(ctx, ev)
	}
	if violation {
		s.logger.Warn("Request violation", "agent", actor, "round", round, "violations", s.machine.Violations())
		if s.engine.hooks.OnViolation != nil {
			s.engine.hooks.OnViolation(ctx, ev)
		}
	}

	if done {
		return true, s.finish(ctx, ev)
	}

	if s.machine.RoundComplete() {
		if err := s.machine.AdvanceRound(); err != nil {
			return false, s.fail(ctx, domain.ErrProtocolViolation, err)
		}
		s.logger.Info("Round complete", "round", s.machine.Round())
		if s.engine.hooks.OnRoundComplete != nil {
			s.engine.hooks.OnRoundComplete(ctx, &domain.RoundEvent{
				SessionID: s.id,
				Game:      s.game,
				Round:     s.machine.Round(),
			})
		}
	}
	return false, nil
}

// Play runs turns until the game ends.
func (s *Session) Play(ctx context.Context) (*Result, error) {
	ctx, span := s.engine.tracer.Start(ctx, "turnstile.session",
		trace.WithAttributes(
			attribute.String("turnstile.game", s.game),
			attribute.String("turnstile.session_id", s.id),
		))
	defer span.End()

	for s.machine.Status() == domain.StatusInProgress {
		a, msg, err := s.Observe()
		if err != nil {
			return nil, spanError(span, err)
		}
		response, err := s.invoke(ctx, a, msg)
		if err != nil {
			return nil, spanError(span, s.fail(ctx, domain.ErrAgentInvocation, err))
		}
		if _, err := s.Step(ctx, response); err != nil {
			return s.result, spanError(span, err)
		}
	}
	if s.result == nil {
		return nil, spanError(span, s.errorf(domain.ErrProtocolViolation, "session is %s without a result", s.machine.Status()))
	}
	span.SetAttributes(attribute.Int("turnstile.rounds", s.result.Rounds))
	return s.result, nil
}

func (s *Session) invoke(ctx context.Context, a *agent.Agent, msg domain.Message) (string, error) {
	ctx, span := s.engine.tracer.Start(ctx, "turnstile.agent.invoke",
		trace.WithAttributes(
			attribute.Int("turnstile.agent_id", a.ID),
			attribute.String("turnstile.responder", a.ResponderName()),
			attribute.Int("turnstile.round", s.machine.Round()),
		))
	defer span.End()

	start := time.Now()
	response, err := a.Invoke(ctx, msg)
	s.lastInvoke = time.Since(start)
	if err != nil {
		return "", spanError(span, err)
	}
	return response, nil
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Close closes the environment and extracts the outcome. Step calls it when
// the game ends; a second call fails with domain.ErrProtocolViolation.
func (s *Session) Close(ctx context.Context) (domain.Outcome, error) {
	if s.closed {
		return domain.Outcome{}, s.errorf(domain.ErrProtocolViolation, "session already closed")
	}
	rs, err := s.env.Close(ctx)
	if err != nil {
		kind := domain.ErrEnvironment
		if errors.Is(err, domain.ErrProtocolViolation) {
			kind = domain.ErrProtocolViolation
		}
		return domain.Outcome{}, domain.NewSessionError(kind, s.id, s.game, err)
	}
	s.closed = true

	o, err := outcome.Extract(rs)
	if err != nil {
		return domain.Outcome{}, domain.NewSessionError(domain.ErrEnvironment, s.id, s.game, err)
	}
	return o, nil
}

// finish closes the game and logs everything scorers read from the transcript.
func (s *Session) finish(ctx context.Context, last *domain.TurnEvent) error {
	o, err := s.Close(ctx)
	if err != nil {
		return s.fail(ctx, domain.ErrEnvironment, err)
	}

	lastActor := s.machine.LastActor()
	final, ok := o.Agent(lastActor)
	if !ok {
		return s.fail(ctx, domain.ErrEnvironment, fmt.Errorf("close() returned no outcome for last actor %d", lastActor))
	}
	if final.InvalidMove && s.machine.MarkFinalViolation() {
		s.transcript.Turns[len(s.transcript.Turns)-1].Violation = true
		s.logger.Warn("Request violation", "agent", lastActor, "final", true, "violations", s.machine.Violations())
		if s.engine.hooks.OnViolation != nil {
			last.Violation = true
			s.engine.hooks.OnViolation(ctx, last)
		}
	}
	s.gm.Append(domain.GameID, lastActor, domain.KindNarration, "[GAME] "+final.Reason)

	for _, id := range o.AgentIDs() {
		a, _ := o.Agent(id)
		s.logger.Info("Reward", "agent", id, "reward", a.Reward, "invalid_move", a.InvalidMove, "reason", a.Reason)
	}
	s.LogKey(domain.KeyReward, o.Rewards())
	s.LogKey(domain.KeyRewardDetails, outcome.Details(o))
	s.LogKey(domain.KeyRequestViolations, s.machine.History())
	s.LogKey(domain.KeyViolationCount, s.machine.Violations())

	metrics := s.variant.Classify(o, lastActor)
	for k, v := range metrics.Keys() {
		s.LogKey(k, v)
	}

	var hookErr error
	if s.variant.OnAfterGame != nil {
		if err := s.variant.OnAfterGame(ctx, s, o); err != nil {
			hookErr = fmt.Errorf("master %s: after game: %w", s.variant.Name, err)
			s.logger.Error("Master hook failed", "err", hookErr)
		}
	}

	s.transcript.Events = s.gm.Since(0)
	s.transcript.Status = domain.StatusDone
	s.transcript.EndedAt = time.Now().UTC()

	var scores map[string]float64
	if s.scorer != nil {
		scores, err = s.scorer.Score(s.transcript)
		if err != nil {
			s.logger.Warn("Scoring failed", "scorer", s.scorer.Name(), "err", err)
		}
	}

	s.result = &Result{
		SessionID:  s.id,
		Outcome:    o,
		Metrics:    metrics,
		Rounds:     s.machine.Round(),
		Violations: s.machine.Violations(),
		Scores:     scores,
		Transcript: s.transcript.Clone(),
	}
	s.logger.Info("Session finished",
		"rounds", s.result.Rounds,
		"violations", s.result.Violations,
		"aborted", metrics.Aborted,
		"success", metrics.Success,
		"lose", metrics.Lose,
	)
	if s.engine.hooks.OnGameEnd != nil {
		s.engine.hooks.OnGameEnd(ctx, &domain.GameEvent{
			SessionID:  s.id,
			Game:       s.game,
			Rounds:     s.result.Rounds,
			Violations: s.result.Violations,
			Metrics:    metrics,
			Outcome:    o,
		})
	}

	if err := s.persist(ctx); err != nil {
		return err
	}
	return hookErr
}

// fail aborts the session. The transcript is persisted as it stands.
func (s *Session) fail(ctx context.Context, kind error, cause error) error {
	var err error = domain.NewSessionError(kind, s.id, s.game, cause)
	var se *domain.SessionError
	if errors.As(cause, &se) {
		err = cause
	}
	s.aborted = err
	s.logger.Error("Session aborted", "err", err)
	_ = s.persist(ctx)
	return err
}

func (s *Session) persist(ctx context.Context) error {
	m := s.engine.sessions
	if m == nil {
		return nil
	}
	if err := m.Save(ctx, s.id, s.transcript.Clone()); err != nil {
		s.logger.Error("Failed to persist transcript", "err", err)
		return fmt.Errorf("failed to persist transcript of session %s: %w", s.id, err)
	}
	return nil
}
