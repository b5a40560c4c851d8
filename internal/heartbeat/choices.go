package heartbeat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/heartbeat-engine/internal/services"
	"github.com/jwebster45206/heartbeat-engine/internal/services/events"
	"github.com/jwebster45206/heartbeat-engine/pkg/being"
	"github.com/jwebster45206/heartbeat-engine/pkg/choice"
	"github.com/jwebster45206/heartbeat-engine/pkg/status"
	"github.com/jwebster45206/heartbeat-engine/pkg/storage"
	"github.com/jwebster45206/heartbeat-engine/pkg/world"
)

// SocketLookup tells whether a player currently has a socket bound.
type SocketLookup interface {
	SocketID(playerID string) string
}

// GenerateParams is everything one crossroads generation needs.
type GenerateParams struct {
	Character   *being.Being
	Sandbox     *world.Sandbox
	Signals     []status.Signal
	Status      status.Praesens
	HeartbeatID string
	PlayerID    string
}

// ChoicesReady is the payload of a choices_ready event.
type ChoicesReady struct {
	CharacterID string                `json:"characterId"`
	HeartbeatID string                `json:"heartbeatId"`
	Choices     *choice.PendingChoice `json:"choices"`
	Signals     []status.Signal       `json:"signals"`
}

// Generator turns fired signals into a two-option crossroads for the player.
type Generator struct {
	llm       services.LLMService
	choices   choice.Store
	store     storage.Storage
	publisher events.Publisher
	sockets   SocketLookup
	logger    *slog.Logger
}

func NewGenerator(llm services.LLMService, choices choice.Store, store storage.Storage, publisher events.Publisher, sockets SocketLookup, logger *slog.Logger) *Generator {
	return &Generator{
		llm:       llm,
		choices:   choices,
		store:     store,
		publisher: publisher,
		sockets:   sockets,
		logger:    logger,
	}
}

// Generate produces and stores a crossroads choice for the character. Failures
// are logged and leave the character with neither flag set, so it is never
// stuck waiting on a choice that does not exist.
func (g *Generator) Generate(ctx context.Context, p GenerateParams) {
	c := p.Character
	log := g.logger.With("character_id", c.ID, "heartbeat_id", p.HeartbeatID)

	c.ActiveHeartbeatID = p.HeartbeatID
	c.IsProcessing = true
	if err := g.store.SaveBeing(ctx, c); err != nil {
		log.Error("Failed to mark choice generation", "error", err)
		g.reset(ctx, c, log)
		return
	}

	pc, err := g.generate(ctx, p)
	if err != nil {
		log.Error("Choice generation failed", "error", err)
		g.reset(ctx, c, log)
		return
	}

	c.IsProcessing = false
	if err := g.store.SaveBeing(ctx, c); err != nil {
		log.Error("Failed to save character after choice generation", "error", err)
		g.reset(ctx, c, log)
		return
	}
	if err := g.choices.Set(ctx, p.HeartbeatID, pc); err != nil {
		log.Error("Failed to store pending choice", "error", err)
		g.reset(ctx, c, log)
		return
	}

	log.Info("Crossroads ready", "signals", len(p.Signals))

	if g.sockets.SocketID(p.PlayerID) == "" {
		return
	}
	err = g.publisher.Publish(ctx, p.PlayerID, events.Event{
		Type: events.EventTypeChoicesReady,
		Data: ChoicesReady{
			CharacterID: c.ID,
			HeartbeatID: p.HeartbeatID,
			Choices:     pc,
			Signals:     p.Signals,
		},
	})
	if err != nil {
		// the scheduler re-emits pending choices, so a lost publish is recovered
		log.Warn("Failed to publish choices", "error", err)
	}
}

func (g *Generator) generate(ctx context.Context, p GenerateParams) (*choice.PendingChoice, error) {
	prompt := buildCrossroadsPrompt(p.Character, p.Sandbox, p.Status, p.Signals)
	raw, err := services.CompleteJSON(ctx, g.llm, crossroadsSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to complete crossroads: %w", err)
	}
	pc, err := choice.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse crossroads: %w", err)
	}
	return pc, nil
}

func (g *Generator) reset(ctx context.Context, c *being.Being, log *slog.Logger) {
	c.IsProcessing = false
	c.ActiveHeartbeatID = ""
	if err := g.store.SaveBeing(ctx, c); err != nil {
		log.Error("Failed to clear choice flags", "error", err)
	}
}
