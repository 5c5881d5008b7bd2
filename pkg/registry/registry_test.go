package registry

import (
	"errors"
	"testing"

	"github.com/aretw0/turnstile/internal/testutils"
	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/aretw0/turnstile/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scripted(options map[string]any) (ports.Environment, error) {
	return testutils.NewScriptedEnv(4), nil
}

func TestRegistry_Make(t *testing.T) {
	r, err := NewRegistry(
		Entry{ID: "b-v0", Players: 2, Factory: scripted},
		Entry{ID: "a-v0", Players: 1, Factory: scripted},
	)
	require.NoError(t, err)

	env1, err := r.Make("a-v0", nil)
	require.NoError(t, err)
	env2, err := r.Make("a-v0", nil)
	require.NoError(t, err)
	assert.NotSame(t, env1, env2, "every session gets its own instance")

	_, err = r.Make("missing-v0", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownEnvironment)

	var ids []string
	for _, e := range r.List() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"a-v0", "b-v0"}, ids)

	e, ok := r.Lookup("b-v0")
	assert.True(t, ok)
	assert.Equal(t, 2, e.Players)
}

func TestRegistry_FactoryError(t *testing.T) {
	boom := errors.New("bad option")
	r, err := NewRegistry(Entry{ID: "x", Factory: func(map[string]any) (ports.Environment, error) {
		return nil, boom
	}})
	require.NoError(t, err)

	_, err = r.Make("x", map[string]any{"size": -1})
	assert.ErrorIs(t, err, boom)
}

func TestNewRegistry_Rejects(t *testing.T) {
	_, err := NewRegistry(Entry{ID: "x", Factory: scripted}, Entry{ID: "x", Factory: scripted})
	assert.Error(t, err)

	_, err = NewRegistry(Entry{Factory: scripted})
	assert.Error(t, err)

	_, err = NewRegistry(Entry{ID: "x"})
	assert.Error(t, err)
}
