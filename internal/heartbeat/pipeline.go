package heartbeat

import (
	"context"
	"log/slog"

	"github.com/jwebster45206/heartbeat-engine/pkg/being"
	"github.com/jwebster45206/heartbeat-engine/pkg/world"
)

// TickContext is the mutable state one heartbeat hands to each subscriber in turn.
type TickContext struct {
	Character      *being.Being
	Sandbox        *world.Sandbox
	NPCs           []*being.Being
	HeartbeatCount int
	Milestones     []being.Milestone
}

// AddMilestone records m if it is non-nil.
func (tc *TickContext) AddMilestone(m *being.Milestone) {
	if m != nil {
		tc.Milestones = append(tc.Milestones, *m)
	}
}

// Subscriber is one step of the heartbeat pipeline.
type Subscriber interface {
	Name() string
	OnHeartbeat(ctx context.Context, tc *TickContext) error
}

// Pipeline runs subscribers in registration order. A failing subscriber is
// logged and the remaining ones still run.
type Pipeline struct {
	subscribers []Subscriber
	logger      *slog.Logger
}

func NewPipeline(logger *slog.Logger, subscribers ...Subscriber) *Pipeline {
	return &Pipeline{subscribers: subscribers, logger: logger}
}

// Register appends a subscriber to the end of the pipeline.
func (p *Pipeline) Register(s Subscriber) {
	p.subscribers = append(p.subscribers, s)
}

// Names lists the subscribers in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.subscribers))
	for i, s := range p.subscribers {
		names[i] = s.Name()
	}
	return names
}

func (p *Pipeline) Run(ctx context.Context, tc *TickContext) {
	for _, s := range p.subscribers {
		if err := s.OnHeartbeat(ctx, tc); err != nil {
			p.logger.Error("Heartbeat subscriber failed",
				"subscriber", s.Name(),
				"character_id", tc.Character.ID,
				"heartbeat_count", tc.HeartbeatCount,
				"error", err)
		}
	}
}
