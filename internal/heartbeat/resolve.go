package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/heartbeat-engine/pkg/being"
	"github.com/jwebster45206/heartbeat-engine/pkg/choice"
	"github.com/jwebster45206/heartbeat-engine/pkg/storage"
)

// Choice keys accepted by Resolve.
const (
	ChoiceOptionA = "option_a"
	ChoiceOptionB = "option_b"
	ChoiceIgnore  = "ignore"
)

var (
	ErrCharacterNotFound = errors.New("character not found")
	ErrSandboxNotFound   = errors.New("sandbox not found")
	ErrNoPendingChoice   = errors.New("no pending choices")
	ErrChoiceNotFound    = errors.New("choice data not found")
	ErrInvalidChoice     = errors.New("invalid choice")
)

// Resolution is the outcome of answering a crossroads.
type Resolution struct {
	Resolution string            `json:"resolution"`
	Action     string            `json:"action,omitempty"`
	Stats      *being.Stats      `json:"stats,omitempty"`
	Milestones []being.Milestone `json:"milestones,omitempty"`
}

// Resolver applies a player's answer to the character's pending choice.
type Resolver struct {
	store   storage.Storage
	choices choice.Store
	locks   *CharacterLocks
	logger  *slog.Logger
}

func NewResolver(store storage.Storage, choices choice.Store, locks *CharacterLocks, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, choices: choices, locks: locks, logger: logger}
}

// Resolve answers the active crossroads with option_a, option_b or ignore.
func (r *Resolver) Resolve(ctx context.Context, characterID, key string) (*Resolution, error) {
	unlock := r.locks.Lock(characterID)
	defer unlock()

	c, err := r.store.LoadBeing(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load character: %w", err)
	}
	if c == nil {
		return nil, ErrCharacterNotFound
	}
	sb, err := r.store.LoadSandbox(ctx, c.SandboxID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sandbox: %w", err)
	}
	if sb == nil {
		return nil, ErrSandboxNotFound
	}

	heartbeatID := c.ActiveHeartbeatID
	if heartbeatID == "" {
		return nil, ErrNoPendingChoice
	}
	log := r.logger.With("character_id", c.ID, "heartbeat_id", heartbeatID)

	if key == ChoiceIgnore {
		c.ActiveHeartbeatID = ""
		if err := r.choices.Delete(ctx, heartbeatID); err != nil {
			log.Warn("Failed to delete ignored choice", "error", err)
		}
		if err := r.store.SaveBeing(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to save character: %w", err)
		}
		log.Info("Crossroads ignored")
		return &Resolution{Resolution: ChoiceIgnore}, nil
	}

	if key != ChoiceOptionA && key != ChoiceOptionB {
		return nil, ErrInvalidChoice
	}

	pc, err := r.choices.Get(ctx, heartbeatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending choice: %w", err)
	}
	if pc == nil {
		c.ActiveHeartbeatID = ""
		if err := r.store.SaveBeing(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to save character: %w", err)
		}
		return nil, ErrChoiceNotFound
	}

	opt := pc.OptionA
	if key == ChoiceOptionB {
		opt = pc.OptionB
	}

	var milestones []being.Milestone
	c.ApplyHealthChange(opt.HealthImpact)
	c.ApplyVibeChange(opt.VibeImpact)
	c.ApplyWealthChange(opt.WealthImpact)
	if m := c.ApplyMissionProgressChange(opt.LifeMissionImpact); m != nil {
		milestones = append(milestones, *m)
	}

	place := ""
	if opt.Place != "" {
		place = " at " + opt.Place
	}
	c.AppendLife(fmt.Sprintf("- **%s** — *%s%s.*", sb.CurrentDate.Short(), opt.Action, place))

	c.ActiveHeartbeatID = ""
	if err := r.store.SaveBeing(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save character: %w", err)
	}
	if err := r.choices.Delete(ctx, heartbeatID); err != nil {
		log.Warn("Failed to delete resolved choice", "error", err)
	}

	stats := c.Snapshot()
	log.Info("Crossroads resolved", "choice", key, "action", opt.Action)
	return &Resolution{
		Resolution: key,
		Action:     opt.Action,
		Stats:      &stats,
		Milestones: milestones,
	}, nil
}
