package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/jwebster45206/heartbeat-engine/pkg/being"
	"github.com/jwebster45206/heartbeat-engine/pkg/world"
)

// MockStorage is a mock implementation of Storage for testing.
// Documents are stored as copies so callers cannot mutate stored state by accident.
type MockStorage struct {
	mu        sync.RWMutex
	beings    map[string]*being.Being
	sandboxes map[string]*world.Sandbox
	objects   []*world.Object
	events    []*world.Event
	pingError error
	saveError error
	saves     map[string]int
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		beings:    make(map[string]*being.Being),
		sandboxes: make(map[string]*world.Sandbox),
		saves:     make(map[string]int),
	}
}

func clone[T any](in *T) *T {
	data, _ := json.Marshal(in)
	var out T
	_ = json.Unmarshal(data, &out)
	return &out
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError makes every subsequent save fail with err. Pass nil to clear.
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SaveCount returns how many times the document with id was saved.
func (m *MockStorage) SaveCount(id string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves[id]
}

// Objects returns every created object.
func (m *MockStorage) Objects() []*world.Object {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*world.Object(nil), m.objects...)
}

// Events returns every created world event.
func (m *MockStorage) Events() []*world.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*world.Event(nil), m.events...)
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) LoadBeing(ctx context.Context, id string) (*being.Being, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.beings[id]
	if !ok {
		return nil, nil
	}
	return clone(b), nil
}

func (m *MockStorage) SaveBeing(ctx context.Context, b *being.Being) error {
	if b == nil {
		return errors.New("being cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.beings[b.ID] = clone(b)
	m.saves[b.ID]++
	return nil
}

func (m *MockStorage) ListNPCs(ctx context.Context, mainCharacterID string) ([]*being.Being, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var npcs []*being.Being
	for _, b := range m.beings {
		if !b.IsMain && b.MainCharacterID == mainCharacterID {
			npcs = append(npcs, clone(b))
		}
	}
	sort.Slice(npcs, func(i, j int) bool { return npcs[i].ID < npcs[j].ID })
	return npcs, nil
}

func (m *MockStorage) LoadSandbox(ctx context.Context, id string) (*world.Sandbox, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sb, ok := m.sandboxes[id]
	if !ok {
		return nil, nil
	}
	return clone(sb), nil
}

func (m *MockStorage) SaveSandbox(ctx context.Context, sb *world.Sandbox) error {
	if sb == nil {
		return errors.New("sandbox cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.sandboxes[sb.ID] = clone(sb)
	m.saves[sb.ID]++
	return nil
}

func (m *MockStorage) CreateObject(ctx context.Context, obj *world.Object) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.objects = append(m.objects, clone(obj))
	return nil
}

func (m *MockStorage) CreateWorldEvent(ctx context.Context, ev *world.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.events = append(m.events, clone(ev))
	return nil
}
