package session

import (
	"errors"
	"fmt"
	"sync"
)

// RuntimeAction is what a player asks the runtime to do with a character.
type RuntimeAction string

const (
	ActionPlay  RuntimeAction = "play"
	ActionPause RuntimeAction = "pause"
)

// RuntimeState is reported to clients.
type RuntimeState string

const (
	StatePlaying RuntimeState = "playing"
	StatePaused  RuntimeState = "paused"
)

var (
	ErrNoActiveSession = errors.New("no active socket session")
	ErrUnknownAction   = errors.New("unknown runtime action")
)

// Session is a player's bound socket and the character it is driving.
type Session struct {
	SocketID    string
	CharacterID string
	IsPlaying   bool
}

// RuntimeUpdate is the outcome of ApplyRuntimeAction. CharacterToStop is set
// when play moved to a different character and the old loop must be stopped.
type RuntimeUpdate struct {
	CharacterToStop string
	State           RuntimeState
}

// Registry tracks one session per player. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

// RegisterSocket binds socketID to the player, keeping any character and play
// state. It returns the previously bound socket id when a different socket is displaced.
func (r *Registry) RegisterSocket(playerID, socketID string) (replacedSocketID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.sessions[playerID]
	r.sessions[playerID] = Session{
		SocketID:    socketID,
		CharacterID: existing.CharacterID,
		IsPlaying:   existing.IsPlaying,
	}
	if ok && existing.SocketID != "" && existing.SocketID != socketID {
		return existing.SocketID
	}
	return ""
}

// UnregisterSocket drops the player's session if socketID is still the bound
// socket. shouldPause reports whether the caller must stop characterID's loop.
// A stale socket (already replaced) is a no-op.
func (r *Registry) UnregisterSocket(playerID, socketID string) (shouldPause bool, characterID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.sessions[playerID]
	if !ok || existing.SocketID != socketID {
		return false, ""
	}
	delete(r.sessions, playerID)
	return existing.IsPlaying, existing.CharacterID
}

// Get returns the player's session.
func (r *Registry) Get(playerID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[playerID]
	return s, ok
}

// RuntimeState reports playing or paused; players without a session are paused.
func (r *Registry) RuntimeState(playerID string) RuntimeState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[playerID].IsPlaying {
		return StatePlaying
	}
	return StatePaused
}

// IsPlaying reports whether the player is currently playing characterID.
func (r *Registry) IsPlaying(playerID, characterID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[playerID]
	return ok && s.IsPlaying && s.CharacterID == characterID
}

// SocketID returns the player's bound socket, or "" when not connected.
func (r *Registry) SocketID(playerID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[playerID].SocketID
}

// ApplyRuntimeAction records play or pause for characterID. The player must
// have a bound socket.
func (r *Registry) ApplyRuntimeAction(playerID, characterID string, action RuntimeAction) (RuntimeUpdate, error) {
	if action != ActionPlay && action != ActionPause {
		return RuntimeUpdate{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.sessions[playerID]
	if !ok {
		return RuntimeUpdate{}, ErrNoActiveSession
	}

	var update RuntimeUpdate
	if action == ActionPlay && existing.CharacterID != "" && existing.CharacterID != characterID {
		update.CharacterToStop = existing.CharacterID
	}

	playing := action == ActionPlay
	r.sessions[playerID] = Session{
		SocketID:    existing.SocketID,
		CharacterID: characterID,
		IsPlaying:   playing,
	}
	update.State = StatePaused
	if playing {
		update.State = StatePlaying
	}
	return update, nil
}
