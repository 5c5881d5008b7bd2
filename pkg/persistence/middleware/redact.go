package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/aretw0/turnstile/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type redactMiddleware struct {
	next     ports.TranscriptStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks the values of transcript keys and turn info
// entries whose names match any of the patterns. Nested maps are walked.
// The caller's transcript is left untouched.
func NewRedactMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.TranscriptStore) ports.TranscriptStore {
		return &redactMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, sessionID string, t *domain.Transcript) error {
	cloned := t.Clone()
	cloned.Keys = deepCopyMap(t.Keys)
	m.mask(cloned.Keys)
	for i := range cloned.Turns {
		if cloned.Turns[i].Info == nil {
			continue
		}
		cloned.Turns[i].Info = deepCopyMap(cloned.Turns[i].Info)
		m.mask(cloned.Turns[i].Info)
	}
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, sessionID string) (*domain.Transcript, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func (m *redactMiddleware) mask(values map[string]any) {
	for k, v := range values {
		if m.matches(k) {
			values[k] = Mask
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			m.mask(sub)
		}
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(sub)
		} else {
			out[k] = v
		}
	}
	return out
}
