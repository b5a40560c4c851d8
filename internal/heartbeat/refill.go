package heartbeat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/heartbeat-engine/internal/planner"
	"github.com/jwebster45206/heartbeat-engine/pkg/being"
)

// QueueRefill tops up AI action queues with a fresh weekly plan on the first
// tick and every RefillEvery ticks after it. The main character is included
// when the sandbox has free will enabled.
type QueueRefill struct {
	planner  planner.Planner
	every    int
	maxQueue int
	logger   *slog.Logger
}

var _ Subscriber = (*QueueRefill)(nil)

func NewQueueRefill(p planner.Planner, t Tuning, logger *slog.Logger) *QueueRefill {
	t = t.Normalize()
	return &QueueRefill{planner: p, every: t.RefillEvery, maxQueue: t.MaxAIQueueSize, logger: logger}
}

func (r *QueueRefill) Name() string { return "npc_queue_refill" }

// Due reports whether the given heartbeat count is a refill tick (1, 1+every, ...).
func (r *QueueRefill) Due(count int) bool {
	return count > 0 && (count-1)%r.every == 0
}

func (r *QueueRefill) OnHeartbeat(ctx context.Context, tc *TickContext) error {
	if tc.Character.IsDead || !r.Due(tc.HeartbeatCount) {
		return nil
	}

	targets := make([]*being.Being, 0, len(tc.NPCs)+1)
	targets = append(targets, tc.NPCs...)
	if tc.Sandbox.FreeWillEnabled {
		targets = append(targets, tc.Character)
	}
	if len(targets) == 0 {
		return nil
	}

	plans, err := r.planner.PlanWeek(ctx, tc.Sandbox, targets)
	if err != nil {
		return fmt.Errorf("failed to plan week: %w", err)
	}

	for _, b := range targets {
		plan, ok := plans[b.ID]
		if !ok {
			continue
		}
		b.AIActionQueue = append(b.AIActionQueue, plan...)
		if len(b.AIActionQueue) > r.maxQueue {
			b.AIActionQueue = b.AIActionQueue[:r.maxQueue]
		}
	}

	r.logger.Debug("Refilled AI action queues",
		"character_id", tc.Character.ID,
		"beings", len(plans),
		"heartbeat_count", tc.HeartbeatCount)
	return nil
}
