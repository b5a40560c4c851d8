package heartbeat

import (
	"context"
	"math"
)

// Decay wears the character down a little every day and settles money.
type Decay struct {
	tuning Tuning
}

var _ Subscriber = (*Decay)(nil)

func NewDecay(t Tuning) *Decay {
	return &Decay{tuning: t.Normalize()}
}

func (d *Decay) Name() string { return "being_decay" }

func (d *Decay) OnHeartbeat(_ context.Context, tc *TickContext) error {
	c := tc.Character

	c.ApplyHealthChange(-d.tuning.HealthDecay)
	c.ApplyVibeChange(-d.tuning.VibeDecay)

	if c.DeathCheck(tc.Sandbox.CurrentDate) {
		return nil
	}

	if daily := float64(c.MonthlyExpenses) / 30; daily > 0 {
		c.ApplyWealthChange(-daily)
	}

	tc.AddMilestone(c.ApplyMissionProgressChange(-d.tuning.MissionDecay))

	if tc.HeartbeatCount > 0 && tc.HeartbeatCount%d.tuning.RelationshipEvery == 0 {
		for _, npc := range tc.NPCs {
			if npc.RelationshipIndex != nil && *npc.RelationshipIndex > 0 {
				v := math.Max(0, *npc.RelationshipIndex-d.tuning.RelationshipDecay)
				npc.RelationshipIndex = &v
			}
		}
	}

	if tc.HeartbeatCount > 0 && tc.HeartbeatCount%d.tuning.IncomeEvery == 0 && c.MonthlyIncome > 0 {
		c.ApplyWealthChange(float64(c.MonthlyIncome))
	}
	return nil
}
