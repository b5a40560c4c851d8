package heartbeat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/heartbeat-engine/pkg/being"
	"github.com/jwebster45206/heartbeat-engine/pkg/status"
	"github.com/jwebster45206/heartbeat-engine/pkg/storage"
	"github.com/jwebster45206/heartbeat-engine/pkg/world"
)

// CharacterAction is what the character is doing after a tick.
type CharacterAction struct {
	CurrentAction     string                `json:"current_action,omitempty"`
	Location          being.Location        `json:"location"`
	PlayerActionQueue []being.PlannedAction `json:"player_action_queue"`
}

// NPCUpdate is the per-NPC slice of a tick result pushed to clients.
type NPCUpdate struct {
	NPCID             string                   `json:"npc_id"`
	CurrentAction     string                   `json:"current_action,omitempty"`
	Location          being.Location           `json:"location"`
	DiscoveredPlaces  []being.DiscoveredPlace  `json:"discovered_places,omitempty"`
	DiscoveredPeople  []being.DiscoveredPerson `json:"discovered_people,omitempty"`
	WealthIndex       int                      `json:"wealth_index"`
	RelationshipIndex *float64                 `json:"relationship_index,omitempty"`
}

// Result summarizes one processed heartbeat.
type Result struct {
	HeartbeatID     string            `json:"heartbeatId"`
	Date            world.Date        `json:"date"`
	Stats           being.Stats       `json:"stats"`
	StatChanges     being.Stats       `json:"statChanges"`
	Status          status.Praesens   `json:"statusPraesens"`
	IsDead          bool              `json:"isDead"`
	DeathReason     string            `json:"deathReason,omitempty"`
	CharacterAction CharacterAction   `json:"characterAction"`
	NPCUpdates      []NPCUpdate       `json:"npcUpdates"`
	Signals         []status.Signal   `json:"signals,omitempty"`
	Milestones      []being.Milestone `json:"milestones,omitempty"`
}

// Processor advances one character's world by a single day.
type Processor struct {
	store     storage.Storage
	pipeline  *Pipeline
	generator *Generator
	tuning    Tuning
	logger    *slog.Logger
	now       func() time.Time
}

// NewProcessor builds a processor. A nil generator disables crossroads choices.
func NewProcessor(store storage.Storage, pipeline *Pipeline, generator *Generator, t Tuning, logger *slog.Logger) *Processor {
	return &Processor{
		store:     store,
		pipeline:  pipeline,
		generator: generator,
		tuning:    t.Normalize(),
		logger:    logger,
		now:       time.Now,
	}
}

// Process runs one heartbeat. Ordinary game outcomes, death included, are
// reported in the result; an error means something could not be persisted.
func (p *Processor) Process(ctx context.Context, character *being.Being, sandbox *world.Sandbox, npcs []*being.Being, playerID string) (*Result, error) {
	if character.IsDead {
		return p.terminal(uuid.New().String(), character, sandbox, character.Snapshot(), nil), nil
	}

	sandbox.AdvanceDay(p.now())

	heartbeatID := uuid.New().String()
	prevStats := character.Snapshot()
	prevStatus := status.Interpret(character)

	tc := &TickContext{
		Character:      character,
		Sandbox:        sandbox,
		NPCs:           npcs,
		HeartbeatCount: sandbox.HeartbeatCount,
	}
	p.pipeline.Run(ctx, tc)

	if character.IsDead {
		if err := p.store.SaveSandbox(ctx, sandbox); err != nil {
			return nil, fmt.Errorf("failed to save sandbox: %w", err)
		}
		if err := p.store.SaveBeing(ctx, character); err != nil {
			return nil, fmt.Errorf("failed to save character: %w", err)
		}
		p.logger.Info("Character died",
			"character_id", character.ID,
			"heartbeat_id", heartbeatID,
			"reason", character.DeathReason,
			"date", sandbox.CurrentDate.Short())
		return p.terminal(heartbeatID, character, sandbox, prevStats, tc.Milestones), nil
	}

	today := sandbox.CurrentDate

	action, ok := being.PopAction(&character.PlayerActionQueue)
	if !ok && sandbox.FreeWillEnabled {
		action, ok = being.PopAction(&character.AIActionQueue)
	}
	switch {
	case !ok:
		character.CurrentAction = ""
	case !action.IsIdle:
		if err := p.applyAction(ctx, character, action, tc); err != nil {
			return nil, err
		}
		moveTo(character, action, today)
	}

	updates := make([]NPCUpdate, 0, len(tc.NPCs))
	for _, npc := range tc.NPCs {
		if a, ok := being.PopAction(&npc.AIActionQueue); ok && !a.IsIdle {
			if err := p.applyAction(ctx, npc, a, tc); err != nil {
				return nil, err
			}
			moveTo(npc, a, today)
		}
		updates = append(updates, NPCUpdate{
			NPCID:             npc.ID,
			CurrentAction:     npc.CurrentAction,
			Location:          npc.Current,
			DiscoveredPlaces:  npc.DiscoveredPlaces,
			DiscoveredPeople:  npc.DiscoveredPeople,
			WealthIndex:       npc.WealthIndex,
			RelationshipIndex: npc.RelationshipIndex,
		})
	}

	currStatus := status.Interpret(character)
	signals := status.Detect(prevStatus, currStatus, sandbox.DaysSinceLastSignal, p.tuning.QuietFloor)
	if len(signals) > 0 {
		sandbox.DaysSinceLastSignal = 0
	} else {
		sandbox.DaysSinceLastSignal++
	}

	for _, npc := range tc.NPCs {
		if err := p.store.SaveBeing(ctx, npc); err != nil {
			return nil, fmt.Errorf("failed to save npc %s: %w", npc.ID, err)
		}
	}
	if err := p.store.SaveBeing(ctx, character); err != nil {
		return nil, fmt.Errorf("failed to save character: %w", err)
	}
	if err := p.store.SaveSandbox(ctx, sandbox); err != nil {
		return nil, fmt.Errorf("failed to save sandbox: %w", err)
	}

	if p.generator != nil && len(signals) > 0 && character.ActiveHeartbeatID == "" {
		p.generator.Generate(ctx, GenerateParams{
			Character:   character,
			Sandbox:     sandbox,
			Signals:     signals,
			Status:      currStatus,
			HeartbeatID: heartbeatID,
			PlayerID:    playerID,
		})
	}

	stats := character.Snapshot()
	return &Result{
		HeartbeatID: heartbeatID,
		Date:        today,
		Stats:       stats,
		StatChanges: stats.Diff(prevStats),
		Status:      currStatus,
		CharacterAction: CharacterAction{
			CurrentAction:     character.CurrentAction,
			Location:          character.Current,
			PlayerActionQueue: character.PlayerActionQueue,
		},
		NPCUpdates: updates,
		Signals:    signals,
		Milestones: tc.Milestones,
	}, nil
}

func (p *Processor) terminal(heartbeatID string, character *being.Being, sandbox *world.Sandbox, prev being.Stats, milestones []being.Milestone) *Result {
	stats := character.Snapshot()
	return &Result{
		HeartbeatID: heartbeatID,
		Date:        sandbox.CurrentDate,
		Stats:       stats,
		StatChanges: stats.Diff(prev),
		Status:      status.Interpret(character),
		IsDead:      true,
		DeathReason: character.DeathReason,
		CharacterAction: CharacterAction{
			Location:          character.Current,
			PlayerActionQueue: []being.PlannedAction{},
		},
		NPCUpdates: []NPCUpdate{},
		Milestones: milestones,
	}
}
