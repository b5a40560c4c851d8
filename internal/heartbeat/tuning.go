package heartbeat

import (
	"time"

	"github.com/jwebster45206/heartbeat-engine/pkg/status"
)

// Tuning holds the numeric knobs of the simulation. Zero values are replaced
// by defaults in Normalize, so a partial YAML file only overrides what it names.
type Tuning struct {
	HealthDecay  float64 `yaml:"health_decay"`
	VibeDecay    float64 `yaml:"vibe_decay"`
	MissionDecay float64 `yaml:"mission_decay"`

	RelationshipDecay float64 `yaml:"relationship_decay"`
	RelationshipEvery int     `yaml:"relationship_every"`
	IncomeEvery       int     `yaml:"income_every"`

	RefillEvery    int `yaml:"refill_every"`
	MaxAIQueueSize int `yaml:"max_ai_queue_size"`

	QuietFloor int `yaml:"quiet_floor"`

	InFlightRetry  time.Duration `yaml:"in_flight_retry"`
	ReemitInterval time.Duration `yaml:"reemit_interval"`
	FallbackDelay  time.Duration `yaml:"fallback_delay"`
}

// DefaultTuning returns the standard simulation constants.
func DefaultTuning() Tuning {
	return Tuning{
		HealthDecay:       0.3,
		VibeDecay:         0.5,
		MissionDecay:      0.2,
		RelationshipDecay: 1,
		RelationshipEvery: 7,
		IncomeEvery:       30,
		RefillEvery:       7,
		MaxAIQueueSize:    14,
		QuietFloor:        status.DefaultQuietFloor,
		InFlightRetry:     time.Second,
		ReemitInterval:    15 * time.Second,
		FallbackDelay:     2 * time.Second,
	}
}

// Normalize fills every unset field from DefaultTuning.
func (t Tuning) Normalize() Tuning {
	d := DefaultTuning()
	if t.HealthDecay == 0 {
		t.HealthDecay = d.HealthDecay
	}
	if t.VibeDecay == 0 {
		t.VibeDecay = d.VibeDecay
	}
	if t.MissionDecay == 0 {
		t.MissionDecay = d.MissionDecay
	}
	if t.RelationshipDecay == 0 {
		t.RelationshipDecay = d.RelationshipDecay
	}
	if t.RelationshipEvery <= 0 {
		t.RelationshipEvery = d.RelationshipEvery
	}
	if t.IncomeEvery <= 0 {
		t.IncomeEvery = d.IncomeEvery
	}
	if t.RefillEvery <= 0 {
		t.RefillEvery = d.RefillEvery
	}
	if t.MaxAIQueueSize <= 0 {
		t.MaxAIQueueSize = d.MaxAIQueueSize
	}
	if t.QuietFloor <= 0 {
		t.QuietFloor = d.QuietFloor
	}
	if t.InFlightRetry <= 0 {
		t.InFlightRetry = d.InFlightRetry
	}
	if t.ReemitInterval <= 0 {
		t.ReemitInterval = d.ReemitInterval
	}
	if t.FallbackDelay <= 0 {
		t.FallbackDelay = d.FallbackDelay
	}
	return t
}
