package heartbeat

import (
	"context"
	"errors"
	"testing"

	"github.com/jwebster45206/heartbeat-engine/pkg/being"
	"github.com/jwebster45206/heartbeat-engine/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_RunsInOrderAndContinuesOnError(t *testing.T) {
	var ran []string
	p := NewPipeline(quietLogger(),
		stubSubscriber{name: "first", log: &ran},
		stubSubscriber{name: "broken", err: errors.New("boom"), log: &ran},
	)
	p.Register(stubSubscriber{name: "last", log: &ran})

	c, sb := fixture(world.Date{Year: 2026, Month: 1, Day: 1})
	p.Run(context.Background(), &TickContext{Character: c, Sandbox: sb})

	assert.Equal(t, []string{"first", "broken", "last"}, ran)
	assert.Equal(t, []string{"first", "broken", "last"}, p.Names())
}

func TestDecay_OnHeartbeat(t *testing.T) {
	tests := []struct {
		name  string
		count int
		setup func(c *being.Being, npc *being.Being)
		check func(t *testing.T, c *being.Being, npc *being.Being, tc *TickContext)
	}{
		{
			name:  "ordinary day",
			count: 3,
			check: func(t *testing.T, c *being.Being, npc *being.Being, tc *TickContext) {
				assert.Equal(t, 74.7, c.HealthIndex)
				assert.Equal(t, 74.5, c.VibeIndex)
				assert.Equal(t, 4933, c.WealthIndex) // 2000/30 a day
				assert.InDelta(t, 59.8, c.LifeMission.Progress, 1e-9)
				assert.Equal(t, 50.0, *npc.RelationshipIndex)
				assert.False(t, c.IsDead)
			},
		},
		{
			name:  "weekly relationship decay",
			count: 14,
			check: func(t *testing.T, c *being.Being, npc *being.Being, tc *TickContext) {
				assert.Equal(t, 49.0, *npc.RelationshipIndex)
			},
		},
		{
			name:  "relationship floor",
			count: 7,
			setup: func(c *being.Being, npc *being.Being) { npc.RelationshipIndex = ptr(0.5) },
			check: func(t *testing.T, c *being.Being, npc *being.Being, tc *TickContext) {
				assert.Equal(t, 0.0, *npc.RelationshipIndex)
			},
		},
		{
			name:  "monthly income",
			count: 30,
			check: func(t *testing.T, c *being.Being, npc *being.Being, tc *TickContext) {
				assert.Equal(t, 5000-67+3000, c.WealthIndex)
			},
		},
		{
			name:  "death stops the rest of decay",
			count: 30,
			setup: func(c *being.Being, npc *being.Being) { c.HealthIndex = 0.2 },
			check: func(t *testing.T, c *being.Being, npc *being.Being, tc *TickContext) {
				assert.True(t, c.IsDead)
				assert.Equal(t, "health", c.DeathReason)
				require.NotNil(t, c.DeathDate)
				assert.Equal(t, tc.Sandbox.CurrentDate, *c.DeathDate)
				assert.Equal(t, 5000, c.WealthIndex)
				assert.Equal(t, 60.0, c.LifeMission.Progress)
			},
		},
		{
			name:  "vibe death",
			count: 2,
			setup: func(c *being.Being, npc *being.Being) { c.VibeIndex = 0.4 },
			check: func(t *testing.T, c *being.Being, npc *being.Being, tc *TickContext) {
				assert.True(t, c.IsDead)
				assert.Equal(t, "vibe", c.DeathReason)
			},
		},
		{
			name:  "mission decays from complete without milestone",
			count: 2,
			setup: func(c *being.Being, npc *being.Being) {
				c.LifeMission.Progress = 100
			},
			check: func(t *testing.T, c *being.Being, npc *being.Being, tc *TickContext) {
				assert.Empty(t, tc.Milestones)
				assert.InDelta(t, 99.8, c.LifeMission.Progress, 1e-9)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, sb := fixture(world.Date{Year: 2026, Month: 5, Day: 1})
			npc := being.NewNPC(c, "Bo", "Lin")
			if tt.setup != nil {
				tt.setup(c, npc)
			}
			tc := &TickContext{Character: c, Sandbox: sb, NPCs: []*being.Being{npc}, HeartbeatCount: tt.count}
			require.NoError(t, NewDecay(DefaultTuning()).OnHeartbeat(context.Background(), tc))
			tt.check(t, c, npc, tc)
		})
	}
}

func TestDecay_CustomTuning(t *testing.T) {
	c, sb := fixture(world.Date{Year: 2026, Month: 5, Day: 1})
	d := NewDecay(Tuning{HealthDecay: 2, VibeDecay: 1})
	require.NoError(t, d.OnHeartbeat(context.Background(), &TickContext{Character: c, Sandbox: sb, HeartbeatCount: 1}))
	assert.Equal(t, 73.0, c.HealthIndex)
	assert.Equal(t, 74.0, c.VibeIndex)
}

func TestQueueRefill_Due(t *testing.T) {
	r := NewQueueRefill(&fakePlanner{}, DefaultTuning(), quietLogger())
	for _, n := range []int{1, 8, 15, 22} {
		assert.True(t, r.Due(n), "tick %d", n)
	}
	for _, n := range []int{0, 2, 7, 9, 14} {
		assert.False(t, r.Due(n), "tick %d", n)
	}
}

func TestQueueRefill_AppendsAndCaps(t *testing.T) {
	c, sb := fixture(world.Date{Year: 2026, Month: 5, Day: 1})
	npc := being.NewNPC(c, "Bo", "Lin")
	npc.AIActionQueue = make([]being.PlannedAction, 10)
	npc.AIActionQueue[0] = being.PlannedAction{Action: "already queued"}
	empty := being.NewNPC(c, "Cy", "")

	fp := &fakePlanner{}
	r := NewQueueRefill(fp, DefaultTuning(), quietLogger())
	tc := &TickContext{Character: c, Sandbox: sb, NPCs: []*being.Being{npc, empty}, HeartbeatCount: 8}
	require.NoError(t, r.OnHeartbeat(context.Background(), tc))

	assert.Len(t, npc.AIActionQueue, 14)
	assert.Equal(t, "already queued", npc.AIActionQueue[0].Action)
	assert.Equal(t, "planned", npc.AIActionQueue[10].Action)
	assert.Len(t, empty.AIActionQueue, 7)
	assert.Empty(t, c.AIActionQueue, "character is only planned with free will")
	assert.NotContains(t, fp.seen, c.ID)
}

func TestQueueRefill_FreeWillIncludesCharacter(t *testing.T) {
	c, sb := fixture(world.Date{Year: 2026, Month: 5, Day: 1})
	sb.FreeWillEnabled = true
	fp := &fakePlanner{}
	r := NewQueueRefill(fp, DefaultTuning(), quietLogger())
	require.NoError(t, r.OnHeartbeat(context.Background(), &TickContext{Character: c, Sandbox: sb, HeartbeatCount: 1}))
	assert.Len(t, c.AIActionQueue, 7)
}

func TestQueueRefill_SkipsOffCadenceAndDead(t *testing.T) {
	c, sb := fixture(world.Date{Year: 2026, Month: 5, Day: 1})
	npc := being.NewNPC(c, "Bo", "Lin")
	fp := &fakePlanner{}
	r := NewQueueRefill(fp, DefaultTuning(), quietLogger())

	require.NoError(t, r.OnHeartbeat(context.Background(), &TickContext{Character: c, Sandbox: sb, NPCs: []*being.Being{npc}, HeartbeatCount: 2}))
	c.IsDead = true
	require.NoError(t, r.OnHeartbeat(context.Background(), &TickContext{Character: c, Sandbox: sb, NPCs: []*being.Being{npc}, HeartbeatCount: 8}))

	assert.Equal(t, 0, fp.calls)
	assert.Empty(t, npc.AIActionQueue)
}

func TestQueueRefill_FailureLeavesQueues(t *testing.T) {
	c, sb := fixture(world.Date{Year: 2026, Month: 5, Day: 1})
	npc := being.NewNPC(c, "Bo", "Lin")
	npc.AIActionQueue = []being.PlannedAction{{Action: "keep me"}}

	r := NewQueueRefill(&fakePlanner{err: errors.New("model offline")}, DefaultTuning(), quietLogger())
	err := r.OnHeartbeat(context.Background(), &TickContext{Character: c, Sandbox: sb, NPCs: []*being.Being{npc}, HeartbeatCount: 1})

	assert.Error(t, err)
	assert.Equal(t, []being.PlannedAction{{Action: "keep me"}}, npc.AIActionQueue)
}
