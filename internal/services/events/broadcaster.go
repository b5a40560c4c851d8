package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeHeartbeatUpdate EventType = "heartbeat_update"
	EventTypeChoicesReady    EventType = "choices_ready"
	EventTypeCharacterDied   EventType = "character_died"
	EventTypeRuntimeStatus   EventType = "runtime_status"
	EventTypeSessionReplaced EventType = "session_replaced"
)

// Event is the envelope pushed to a player's socket.
type Event struct {
	Type     EventType `json:"type"`
	PlayerID string    `json:"player_id,omitempty"`
	Data     any       `json:"data,omitempty"`
}

// Publisher delivers events to whichever socket a player has bound.
type Publisher interface {
	Publish(ctx context.Context, playerID string, event Event) error
}

// Broadcaster publishes events to Redis Pub/Sub; socket handlers subscribe per player.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

var _ Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Channel returns the pub/sub channel for a player.
func Channel(playerID string) string {
	return fmt.Sprintf("player-events:%s", playerID)
}

// Publish publishes an event to the player-specific channel
func (b *Broadcaster) Publish(ctx context.Context, playerID string, event Event) error {
	channel := Channel(playerID)
	event.PlayerID = playerID

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)
	return nil
}

// Subscribe opens a subscription to a player's channel. The caller closes it.
func (b *Broadcaster) Subscribe(ctx context.Context, playerID string) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, Channel(playerID))
}
