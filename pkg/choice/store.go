package choice

import (
	"context"
	"sync"
)

// Store holds pending choices keyed by heartbeat id until they are resolved
// or discarded. Get returns (nil, nil) when nothing is stored under the id.
type Store interface {
	Set(ctx context.Context, heartbeatID string, pc *PendingChoice) error
	Get(ctx context.Context, heartbeatID string) (*PendingChoice, error)
	Delete(ctx context.Context, heartbeatID string) error
}

// MemoryStore is a process-local Store. Its contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	choices map[string]*PendingChoice
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{choices: make(map[string]*PendingChoice)}
}

func (m *MemoryStore) Set(_ context.Context, heartbeatID string, pc *PendingChoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pc
	m.choices[heartbeatID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, heartbeatID string) (*PendingChoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pc, ok := m.choices[heartbeatID]
	if !ok {
		return nil, nil
	}
	cp := *pc
	return &cp, nil
}

func (m *MemoryStore) Delete(_ context.Context, heartbeatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.choices, heartbeatID)
	return nil
}

// Len reports how many choices are held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.choices)
}
