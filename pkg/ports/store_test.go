package ports_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/aretw0/turnstile/pkg/ports"
)

// MockStore is a map-backed TranscriptStore used to exercise the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]*domain.Transcript
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Transcript),
	}
}

func (m *MockStore) Save(ctx context.Context, sessionID string, tr *domain.Transcript) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID] = tr.Clone()
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tr, ok := m.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return tr.Clone(), nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func TestTranscriptStore_Contract(t *testing.T) {
	ports.RunTranscriptStoreContract(t, NewMockStore())
}
