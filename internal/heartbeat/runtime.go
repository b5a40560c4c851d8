package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jwebster45206/heartbeat-engine/internal/services/events"
	"github.com/jwebster45206/heartbeat-engine/internal/session"
	"github.com/jwebster45206/heartbeat-engine/pkg/storage"
)

// ErrCharacterDead is returned when a dead character is asked to play.
var ErrCharacterDead = errors.New("character is dead")

// RuntimeStatus is the payload of a runtime_status event.
type RuntimeStatus struct {
	CharacterID  string               `json:"characterId"`
	RuntimeState session.RuntimeState `json:"runtimeState"`
}

// Runtime applies play/pause requests to the session registry and the
// scheduler together. Requests are serialized so two concurrent plays for
// one player always leave exactly one loop running.
type Runtime struct {
	mu        sync.Mutex
	store     storage.Storage
	sessions  *session.Registry
	scheduler *Scheduler
	publisher events.Publisher
	logger    *slog.Logger
}

func NewRuntime(store storage.Storage, sessions *session.Registry, scheduler *Scheduler, publisher events.Publisher, logger *slog.Logger) *Runtime {
	return &Runtime{
		store:     store,
		sessions:  sessions,
		scheduler: scheduler,
		publisher: publisher,
		logger:    logger,
	}
}

// Apply plays or pauses a character for a player.
func (r *Runtime) Apply(ctx context.Context, playerID, characterID string, action session.RuntimeAction) (session.RuntimeState, error) {
	c, err := r.store.LoadBeing(ctx, characterID)
	if err != nil {
		return "", fmt.Errorf("failed to load character: %w", err)
	}
	if c == nil || c.IsDeleted {
		return "", ErrCharacterNotFound
	}
	if c.IsDead && action == session.ActionPlay {
		return "", ErrCharacterDead
	}

	r.mu.Lock()
	update, err := r.sessions.ApplyRuntimeAction(playerID, c.ID, action)
	if err != nil {
		r.mu.Unlock()
		return "", err
	}
	if update.CharacterToStop != "" {
		r.scheduler.Stop(update.CharacterToStop)
	}
	if action == session.ActionPlay {
		r.scheduler.Start(playerID, c.ID)
	} else {
		r.scheduler.Stop(c.ID)
	}
	r.mu.Unlock()

	r.logger.Info("Runtime updated", "player_id", playerID, "character_id", c.ID, "state", update.State)
	r.PublishStatus(ctx, playerID)
	return update.State, nil
}

// PublishStatus pushes the player's current runtime state to their socket.
func (r *Runtime) PublishStatus(ctx context.Context, playerID string) {
	s, ok := r.sessions.Get(playerID)
	if !ok || s.SocketID == "" {
		return
	}
	err := r.publisher.Publish(ctx, playerID, events.Event{
		Type: events.EventTypeRuntimeStatus,
		Data: RuntimeStatus{CharacterID: s.CharacterID, RuntimeState: r.sessions.RuntimeState(playerID)},
	})
	if err != nil {
		r.logger.Warn("Failed to publish runtime status", "player_id", playerID, "error", err)
	}
}

// Disconnect unbinds a socket and pauses whatever it was playing.
func (r *Runtime) Disconnect(playerID, socketID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shouldPause, characterID := r.sessions.UnregisterSocket(playerID, socketID)
	if shouldPause && characterID != "" {
		r.scheduler.Stop(characterID)
		r.logger.Info("Paused on disconnect", "player_id", playerID, "character_id", characterID)
	}
}
