package turnstile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aretw0/turnstile/internal/logging"
	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/aretw0/turnstile/pkg/outcome"
	"github.com/aretw0/turnstile/pkg/ports"
	"github.com/aretw0/turnstile/pkg/registry"
	"github.com/aretw0/turnstile/pkg/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of the spans emitted by sessions.
const TracerName = "github.com/aretw0/turnstile"

// Engine is the high-level entry point for the turnstile library.
// It holds everything sessions share: the environment registry, the master
// variants, scorers, hooks and the transcript store. An Engine is safe for
// concurrent use; each Session it creates is driven by a single goroutine.
type Engine struct {
	registry *registry.Registry
	variants map[string]Variant
	scorers  *outcome.Registry
	hooks    domain.LifecycleHooks
	sessions *session.Manager
	tracer   trace.Tracer
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithVariant registers (or replaces) a master variant by name.
func WithVariant(v Variant) Option {
	return func(e *Engine) {
		e.variants[v.Name] = v
	}
}

// WithScorers replaces the scorer registry.
func WithScorers(r *outcome.Registry) Option {
	return func(e *Engine) {
		e.scorers = r
	}
}

// WithStore persists transcripts of finished and aborted sessions.
func WithStore(store ports.TranscriptStore, opts ...session.Option) Option {
	return func(e *Engine) {
		e.sessions = session.NewManager(store, opts...)
	}
}

// WithSessionManager shares an existing manager, e.g. with an HTTP server.
func WithSessionManager(m *session.Manager) Option {
	return func(e *Engine) {
		e.sessions = m
	}
}

// WithTracer overrides the tracer taken from the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// New creates an Engine playing the environments of reg.
func New(reg *registry.Registry, opts ...Option) (*Engine, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: engine needs an environment registry", domain.ErrSetup)
	}
	e := &Engine{
		registry: reg,
		variants: map[string]Variant{
			SinglePlayer.Name: SinglePlayer,
			TwoPlayer.Name:    TwoPlayer,
		},
		scorers: outcome.NewRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(TracerName)
	}
	return e, nil
}

// Registry returns the environment registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Sessions returns the transcript manager, or nil when nothing is persisted.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Variants lists the registered master variant names.
func (e *Engine) Variants() []string {
	names := make([]string, 0, len(e.variants))
	for name := range e.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run plays a complete session.
func (e *Engine) Run(ctx context.Context, cfg SessionConfig) (*Result, error) {
	s, err := e.NewSession(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s.Play(ctx)
}

// variant resolves the master for a roster size. Sessions of more than two
// agents must name one.
func (e *Engine) variant(name string, players int) (Variant, error) {
	if name == "" {
		switch players {
		case 1:
			name = SinglePlayer.Name
		case 2:
			name = TwoPlayer.Name
		default:
			return Variant{}, fmt.Errorf("%d-player sessions need an explicit master", players)
		}
	}
	v, ok := e.variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("unknown master %q", name)
	}
	if v.Classify == nil {
		return Variant{}, fmt.Errorf("master %q has no classifier", name)
	}
	return v, nil
}
