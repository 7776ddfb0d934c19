package cart

import (
	"context"
	"sync"
)

// MemoryStorage keeps snapshots in process memory. Used for local runs and tests.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStorage returns an empty process-local store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Read(_ context.Context, sessionID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.data[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

func (m *MemoryStorage) Write(_ context.Context, sessionID string, payload []byte) error {
	stored := make([]byte, len(payload))
	copy(stored, payload)
	m.mu.Lock()
	m.data[sessionID] = stored
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.data, sessionID)
	m.mu.Unlock()
	return nil
}
