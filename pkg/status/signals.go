package status

import "sort"

// Signal types.
const (
	HealthShift  = "HEALTH_SHIFT"
	VibeShift    = "VIBE_SHIFT"
	MissionShift = "MISSION_SHIFT"
	Burnout      = "BURNOUT"
	DeathSpiral  = "DEATH_SPIRAL"
	QuietLife    = "QUIET_LIFE"
)

// DefaultQuietFloor is how many signal-free days pass before QUIET_LIFE fires.
const DefaultQuietFloor = 5

// Signal is a notable status change worth surfacing. Signals are never stored.
type Signal struct {
	Type     string         `json:"type"`
	Payload  map[string]any `json:"payload"`
	Priority int            `json:"priority"`
}

func shift(kind string, from, to Entry, priority int) Signal {
	return Signal{
		Type:     kind,
		Payload:  map[string]any{"from": from.Label, "to": to.Label},
		Priority: priority,
	}
}

// Detect compares two readings and returns the signals that fired, highest
// priority first. Compound signals fire on entering their combination, so a
// being that sits in one without any label change stays quiet.
func Detect(prev, curr Praesens, daysSinceLastSignal, quietFloor int) []Signal {
	var signals []Signal

	if prev.Health.Label != curr.Health.Label {
		p := 5
		if curr.Health.Label == HealthTable.Worst() {
			p = 10
		}
		signals = append(signals, shift(HealthShift, prev.Health, curr.Health, p))
	}

	if prev.Vibe.Label != curr.Vibe.Label {
		p := 5
		if curr.Vibe.Label == VibeTable.Worst() {
			p = 10
		}
		signals = append(signals, shift(VibeShift, prev.Vibe, curr.Vibe, p))
	}

	if prev.Mission.Label != curr.Mission.Label {
		p := 4
		if curr.Mission.Label == MissionTable[0].Label || curr.Mission.Label == MissionTable.Worst() {
			p = 8
		}
		signals = append(signals, shift(MissionShift, prev.Mission, curr.Mission, p))
	}

	if inBurnout(curr) && !inBurnout(prev) {
		signals = append(signals, Signal{Type: Burnout, Payload: map[string]any{}, Priority: 9})
	}

	if inDeathSpiral(curr) && !inDeathSpiral(prev) {
		signals = append(signals, Signal{Type: DeathSpiral, Payload: map[string]any{}, Priority: 10})
	}

	if len(signals) == 0 && daysSinceLastSignal >= quietFloor {
		signals = append(signals, Signal{
			Type:     QuietLife,
			Payload:  map[string]any{"daysSince": daysSinceLastSignal},
			Priority: 1,
		})
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Priority > signals[j].Priority
	})
	return signals
}

func inBurnout(p Praesens) bool {
	return p.Health.Label == HealthTable.SecondWorst() && p.Vibe.Label == VibeTable.SecondWorst()
}

func inDeathSpiral(p Praesens) bool {
	return p.Health.Label == HealthTable.Worst() && p.Vibe.Label == VibeTable.Worst()
}
