package status

import (
	"math"
	"testing"

	"github.com/jwebster45206/heartbeat-engine/pkg/being"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{100, "PEAK"},
		{90, "PEAK"},
		{89.9, "HEALTHY"},
		{70, "HEALTHY"},
		{50, "AVERAGE"},
		{30, "DECLINING"},
		{29.9, "CRITICAL"},
		{0, "CRITICAL"},
		{-5, "CRITICAL"},
		{math.NaN(), "CRITICAL"},
		{math.Inf(-1), "CRITICAL"},
	}

	for _, tt := range tests {
		if got := Resolve(tt.value, HealthTable).Label; got != tt.want {
			t.Errorf("Resolve(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestResolve_Monotonic(t *testing.T) {
	for _, table := range []Table{HealthTable, VibeTable, MissionTable} {
		prevTier := table.Tier(Resolve(-10, table).Label)
		for v := -10.0; v <= 110; v += 0.1 {
			tier := table.Tier(Resolve(v, table).Label)
			if tier < 0 {
				t.Fatalf("value %v resolved to unknown label", v)
			}
			if tier > prevTier {
				t.Fatalf("value %v resolved to worse tier %d than lower value (%d)", v, tier, prevTier)
			}
			prevTier = tier
		}
	}
}

func TestInterpret(t *testing.T) {
	b := &being.Being{HealthIndex: 31, VibeIndex: 95}
	p := Interpret(b)
	assert.Equal(t, "DECLINING", p.Health.Label)
	assert.Equal(t, "EUPHORIC", p.Vibe.Label)
	assert.Equal(t, "LOST", p.Mission.Label, "missing mission reads as zero")

	b.LifeMission = &being.LifeMission{Name: "x", Progress: 91}
	assert.Equal(t, "ON_THE_VERGE", Interpret(b).Mission.Label)
}

func TestEntryDisplay(t *testing.T) {
	assert.Equal(t, "On The Verge", MissionTable[0].Display())
	assert.Equal(t, "Ok", VibeTable[2].Display())
}

func reading(health, vibe, mission float64) Praesens {
	return Praesens{
		Health:  Resolve(health, HealthTable),
		Vibe:    Resolve(vibe, VibeTable),
		Mission: Resolve(mission, MissionTable),
	}
}

func types(signals []Signal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = s.Type
	}
	return out
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		prev      Praesens
		curr      Praesens
		days      int
		wantTypes []string
		wantPrio  []int
	}{
		{
			name:      "no change below floor is silent",
			prev:      reading(75, 75, 55),
			curr:      reading(74, 74, 54),
			days:      4,
			wantTypes: []string{},
			wantPrio:  []int{},
		},
		{
			name:      "quiet life at floor",
			prev:      reading(75, 75, 55),
			curr:      reading(74, 74, 54),
			days:      5,
			wantTypes: []string{QuietLife},
			wantPrio:  []int{1},
		},
		{
			name:      "health shift",
			prev:      reading(70, 75, 55),
			curr:      reading(69.7, 74, 54),
			days:      0,
			wantTypes: []string{HealthShift},
			wantPrio:  []int{5},
		},
		{
			name:      "critical shift is elevated",
			prev:      reading(30, 75, 55),
			curr:      reading(29.7, 74, 54),
			days:      0,
			wantTypes: []string{HealthShift},
			wantPrio:  []int{10},
		},
		{
			name:      "mission lost",
			prev:      reading(75, 75, 30),
			curr:      reading(75, 75, 29.8),
			days:      0,
			wantTypes: []string{MissionShift},
			wantPrio:  []int{8},
		},
		{
			name:      "burnout on entry sorted after shift",
			prev:      reading(30.2, 50.1, 55),
			curr:      reading(30, 49.6, 55),
			days:      0,
			wantTypes: []string{Burnout, VibeShift},
			wantPrio:  []int{9, 5},
		},
		{
			name:      "death spiral",
			prev:      reading(30.1, 30.3, 55),
			curr:      reading(29.8, 29.8, 55),
			days:      0,
			wantTypes: []string{HealthShift, VibeShift, DeathSpiral},
			wantPrio:  []int{10, 10, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.prev, tt.curr, tt.days, DefaultQuietFloor)
			assert.Equal(t, tt.wantTypes, types(got))
			prios := make([]int, len(got))
			for i, s := range got {
				prios[i] = s.Priority
			}
			assert.Equal(t, tt.wantPrio, prios)
		})
	}
}

func TestDetect_UnchangedIsEmpty(t *testing.T) {
	// Every combination of tiers with no change and a quiet counter under the floor.
	for _, h := range HealthTable {
		for _, v := range VibeTable {
			for _, m := range MissionTable {
				p := Praesens{Health: h, Vibe: v, Mission: m}
				for days := 0; days < DefaultQuietFloor; days++ {
					if got := Detect(p, p, days, DefaultQuietFloor); len(got) != 0 {
						t.Fatalf("expected no signals for %s/%s/%s, got %v", h.Label, v.Label, m.Label, types(got))
					}
				}
			}
		}
	}
}

func TestDetect_QuietLifePayload(t *testing.T) {
	p := reading(75, 75, 55)
	got := Detect(p, p, 12, DefaultQuietFloor)
	if len(got) != 1 {
		t.Fatalf("expected one signal, got %d", len(got))
	}
	assert.Equal(t, 12, got[0].Payload["daysSince"])
}
