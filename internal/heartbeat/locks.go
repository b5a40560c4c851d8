package heartbeat

import "sync"

// CharacterLocks serializes work on one character between scheduler ticks
// and choice resolution. Locks are created on first use and never freed;
// the set of characters a process serves is small.
type CharacterLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCharacterLocks() *CharacterLocks {
	return &CharacterLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *CharacterLocks) get(characterID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[characterID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[characterID] = m
	}
	return m
}

// Lock blocks until the character's lock is held and returns its unlock func.
func (l *CharacterLocks) Lock(characterID string) func() {
	m := l.get(characterID)
	m.Lock()
	return m.Unlock
}
