package status

import (
	"strings"

	"github.com/jwebster45206/heartbeat-engine/pkg/being"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Entry is one row of a threshold table.
type Entry struct {
	Min         float64 `json:"-"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
}

// Display renders the label for humans, e.g. ON_THE_VERGE becomes "On The Verge".
func (e Entry) Display() string {
	words := strings.ReplaceAll(strings.ToLower(e.Label), "_", " ")
	return cases.Title(language.English).String(words)
}

// Table is an ordered list of entries sorted by descending minimum.
// The last entry is the worst tier.
type Table []Entry

// Tier returns the index of label in the table, 0 being the best tier.
// Unknown labels return -1.
func (t Table) Tier(label string) int {
	for i, e := range t {
		if e.Label == label {
			return i
		}
	}
	return -1
}

// Worst returns the label of the lowest tier.
func (t Table) Worst() string {
	return t[len(t)-1].Label
}

// SecondWorst returns the label of the tier just above the lowest.
func (t Table) SecondWorst() string {
	return t[len(t)-2].Label
}

var (
	HealthTable = Table{
		{90, "PEAK", "physically thriving, energetic, confident in body"},
		{70, "HEALTHY", "feeling good, no complaints"},
		{50, "AVERAGE", "something's off, low energy, minor aches"},
		{30, "DECLINING", "noticeably unwell, struggling to keep up"},
		{0, "CRITICAL", "barely functioning, can die at any point"},
	}

	VibeTable = Table{
		{90, "EUPHORIC", "everything feels possible, radiating energy"},
		{70, "HAPPY", "content, optimistic, socially warm"},
		{50, "OK", "going through the motions"},
		{30, "LOW", "withdrawn, unmotivated, hard to enjoy things"},
		{0, "CRISIS", "can't get out of bed, everything feels pointless"},
	}

	MissionTable = Table{
		{90, "ON_THE_VERGE", "can almost taste it"},
		{70, "DRIVEN", "real momentum, sacrifices feel worth it"},
		{50, "PURSUING", "making progress but the road is long"},
		{30, "DRIFTING", "losing sight of the dream"},
		{0, "LOST", "forgot why this mattered, existential doubt"},
	}
)

// Praesens is the categorical reading of a being's current stats.
type Praesens struct {
	Health  Entry `json:"health"`
	Vibe    Entry `json:"vibe"`
	Mission Entry `json:"life_mission"`
}

// Resolve returns the first entry whose minimum the value meets. Values below
// every minimum (including NaN) fall back to the lowest tier.
func Resolve(value float64, table Table) Entry {
	for _, e := range table {
		if value >= e.Min {
			return e
		}
	}
	return table[len(table)-1]
}

// Interpret reads a being's health, vibe and mission progress.
// A being without a mission reads as progress 0.
func Interpret(b *being.Being) Praesens {
	return Praesens{
		Health:  Resolve(b.HealthIndex, HealthTable),
		Vibe:    Resolve(b.VibeIndex, VibeTable),
		Mission: Resolve(b.MissionProgress(), MissionTable),
	}
}
