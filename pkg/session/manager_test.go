package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/aretw0/turnstile/pkg/ports"
	"github.com/aretw0/turnstile/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Transcript
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, t *domain.Transcript) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Transcript)
	}
	s.data[sessionID] = t.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Transcript, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.data[sessionID]; ok {
		return t.Clone(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_UpdateIsSerialized(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	require.NoError(t, manager.Save(ctx, id, domain.NewTranscript(id, "nim")))

	var wg sync.WaitGroup
	writers := 10
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Update(ctx, id, func(tr *domain.Transcript) error {
				n, _ := tr.Key("counter")
				count, _ := n.(int)
				tr.LogKey("counter", count+1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	tr, err := manager.Load(ctx, id)
	require.NoError(t, err)
	v, _ := tr.Key("counter")
	assert.Equal(t, writers, v, "read-modify-write must not lose updates")
}

func TestManager_UpdateErrorSkipsSave(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	require.NoError(t, manager.Save(ctx, "s1", domain.NewTranscript("s1", "nim")))

	boom := errors.New("boom")
	err := manager.Update(ctx, "s1", func(tr *domain.Transcript) error {
		tr.LogKey("touched", true)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	tr, err := manager.Load(ctx, "s1")
	require.NoError(t, err)
	_, touched := tr.Key("touched")
	assert.False(t, touched)

	err = manager.Update(ctx, "missing", func(*domain.Transcript) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_Exists(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()

	ok, err := manager.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, manager.Save(ctx, "s1", domain.NewTranscript("s1", "nim")))
	ok, err = manager.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
}

type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked int
	ttl      time.Duration
	fail     error
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.fail != nil {
		return nil, l.fail
	}
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.ttl = ttl
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		l.unlocked++
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "s1", domain.NewTranscript("s1", "nim")))
	assert.Equal(t, []string{"s1"}, locker.locked)
	assert.Equal(t, 1, locker.unlocked)
	assert.Equal(t, time.Minute, locker.ttl)

	locker.fail = errors.New("redis down")
	err := manager.Save(ctx, "s1", domain.NewTranscript("s1", "nim"))
	assert.ErrorContains(t, err, "distributed lock")
}
