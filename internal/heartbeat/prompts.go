package heartbeat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwebster45206/heartbeat-engine/pkg/being"
	"github.com/jwebster45206/heartbeat-engine/pkg/status"
	"github.com/jwebster45206/heartbeat-engine/pkg/world"
)

const crossroadsSystemPrompt = "You are a narrative engine for a life simulation. Generate meaningful crossroads moments."

const recentLifeChars = 500

const crossroadsInstructions = `Generate a crossroads moment. Return JSON with:
- situation: 1 sentence describing the moment
- option_a: { action, place, health_impact (-10 to 10), vibe_impact (-10 to 10), wealth_impact (-500 to 500), life_mission_impact (-5 to 5), reaction (1 sentence) }
- option_b: { action, place, health_impact, vibe_impact, wealth_impact, life_mission_impact, reaction }

Options should be meaningfully different: one safe, one risky. Impacts should be realistic.`

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func describeSignals(signals []status.Signal) string {
	parts := make([]string, 0, len(signals))
	for _, s := range signals {
		payload, err := json.Marshal(s.Payload)
		if err != nil {
			payload = []byte("{}")
		}
		parts = append(parts, fmt.Sprintf("%s: %s", s.Type, payload))
	}
	return strings.Join(parts, "; ")
}

// buildCrossroadsPrompt renders the user prompt for a crossroads moment.
func buildCrossroadsPrompt(c *being.Being, sandbox *world.Sandbox, ps status.Praesens, signals []status.Signal) string {
	mission := "None"
	if c.LifeMission != nil && c.LifeMission.Name != "" {
		mission = c.LifeMission.Name
	}

	var b strings.Builder
	b.WriteString("You are generating life choices for a character in a life simulation.\n\n")
	b.WriteString("CHARACTER:\n")
	fmt.Fprintf(&b, "Name: %s\n", c.FullName())
	fmt.Fprintf(&b, "Occupation: %s\n", orDefault(c.Occupation, "Unknown"))
	fmt.Fprintf(&b, "City: %s\n", orDefault(c.Current.City, c.Home.City))
	fmt.Fprintf(&b, "Health: %s - %s\n", ps.Health.Label, ps.Health.Description)
	fmt.Fprintf(&b, "Vibe: %s - %s\n", ps.Vibe.Label, ps.Vibe.Description)
	fmt.Fprintf(&b, "Mission: %s (%s)\n", mission, ps.Mission.Label)
	fmt.Fprintf(&b, "Soul: %s\n", orDefault(c.SoulMD, "Unknown"))
	fmt.Fprintf(&b, "Recent life: %s\n\n", c.RecentLife(recentLifeChars))
	fmt.Fprintf(&b, "SIGNALS FIRED: %s\n", describeSignals(signals))
	fmt.Fprintf(&b, "DATE: %s\n\n", sandbox.CurrentDate.Short())
	b.WriteString(crossroadsInstructions)
	return b.String()
}
