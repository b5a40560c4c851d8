package events

import (
	"context"
	"sync"
)

// MockPublisher records published events for tests.
type MockPublisher struct {
	PublishFunc func(ctx context.Context, playerID string, event Event) error

	mu     sync.Mutex
	events []Published
}

// Published is one recorded call.
type Published struct {
	PlayerID string
	Event    Event
}

var _ Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, playerID string, event Event) error {
	m.mu.Lock()
	m.events = append(m.events, Published{PlayerID: playerID, Event: event})
	fn := m.PublishFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, playerID, event)
	}
	return nil
}

// Events returns a copy of everything published so far.
func (m *MockPublisher) Events() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Published, len(m.events))
	copy(out, m.events)
	return out
}

// Count returns how many events of type t were published.
func (m *MockPublisher) Count(t EventType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.events {
		if p.Event.Type == t {
			n++
		}
	}
	return n
}
