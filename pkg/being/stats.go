package being

import (
	"math"

	"github.com/jwebster45206/heartbeat-engine/pkg/world"
)

// MilestoneMissionCompleted fires when life mission progress reaches 100.
const MilestoneMissionCompleted = "life_mission_completed"

// Milestone is a notable one-off event raised while a tick mutates a being.
type Milestone struct {
	Type string            `json:"type"`
	Data map[string]string `json:"data,omitempty"`
}

// Stats is the absolute stat snapshot reported to clients.
type Stats struct {
	Health      float64 `json:"health"`
	Vibe        float64 `json:"vibe"`
	Money       int     `json:"money"`
	LifeMission float64 `json:"life_mission"`
}

// Snapshot captures the being's current stats.
func (b *Being) Snapshot() Stats {
	return Stats{
		Health:      b.HealthIndex,
		Vibe:        b.VibeIndex,
		Money:       b.WealthIndex,
		LifeMission: b.MissionProgress(),
	}
}

// Diff returns s minus prev, rounded to one decimal for the bounded stats.
func (s Stats) Diff(prev Stats) Stats {
	return Stats{
		Health:      round1(s.Health - prev.Health),
		Vibe:        round1(s.Vibe - prev.Vibe),
		Money:       s.Money - prev.Money,
		LifeMission: round1(s.LifeMission - prev.LifeMission),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ApplyHealthChange adds amount to health, clamped to [0,100] and rounded to 0.1.
func (b *Being) ApplyHealthChange(amount float64) {
	b.HealthIndex = round1(clamp(b.HealthIndex+amount, 0, 100))
}

// ApplyVibeChange adds amount to vibe, clamped to [0,100] and rounded to 0.1.
func (b *Being) ApplyVibeChange(amount float64) {
	b.VibeIndex = round1(clamp(b.VibeIndex+amount, 0, 100))
}

// ApplyWealthChange adds amount to wealth and rounds to a whole unit. Wealth may go negative.
func (b *Being) ApplyWealthChange(amount float64) {
	b.WealthIndex = int(math.Round(float64(b.WealthIndex) + amount))
}

// ApplyMissionProgressChange moves mission progress within [0,100]. It returns a
// milestone the first time progress crosses 100, nil otherwise or without a mission.
func (b *Being) ApplyMissionProgressChange(amount float64) *Milestone {
	if b.LifeMission == nil {
		return nil
	}
	prev := b.LifeMission.Progress
	b.LifeMission.Progress = clamp(prev+amount, 0, 100)
	if prev < 100 && b.LifeMission.Progress >= 100 {
		return &Milestone{
			Type: MilestoneMissionCompleted,
			Data: map[string]string{"mission": b.LifeMission.Name},
		}
	}
	return nil
}

// DeathCheck marks the being dead when health or vibe has reached zero.
// The death date and reason are stamped once; later calls on a dead being
// report true without touching them.
func (b *Being) DeathCheck(today world.Date) bool {
	if b.IsDead {
		return true
	}
	if b.HealthIndex > 0 && b.VibeIndex > 0 {
		return false
	}
	b.IsDead = true
	d := today
	b.DeathDate = &d
	if b.HealthIndex <= 0 {
		b.DeathReason = "health"
	} else {
		b.DeathReason = "vibe"
	}
	return true
}
