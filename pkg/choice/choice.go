package choice

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Impact bounds for generated options.
const (
	MaxHealthImpact  = 10
	MaxVibeImpact    = 10
	MaxWealthImpact  = 500
	MaxMissionImpact = 5
)

// Option is one side of a crossroads.
type Option struct {
	Action            string  `json:"action"`
	Place             string  `json:"place,omitempty"`
	HealthImpact      float64 `json:"health_impact"`
	VibeImpact        float64 `json:"vibe_impact"`
	WealthImpact      float64 `json:"wealth_impact"`
	LifeMissionImpact float64 `json:"life_mission_impact"`
	Reaction          string  `json:"reaction,omitempty"`
}

// PendingChoice is a generated crossroads waiting for the player.
type PendingChoice struct {
	Situation string `json:"situation"`
	OptionA   Option `json:"option_a"`
	OptionB   Option `json:"option_b"`
}

//go:embed crossroads.schema.json
var crossroadsSchema string

var schema = jsonschema.MustCompileString("crossroads.schema.json", crossroadsSchema)

// Parse validates raw generator output against the crossroads schema and
// returns the choice with every impact clamped to its bound.
func Parse(raw []byte) (*PendingChoice, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode crossroads: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid crossroads: %w", err)
	}

	var pc PendingChoice
	if err := json.Unmarshal(raw, &pc); err != nil {
		return nil, fmt.Errorf("failed to decode crossroads: %w", err)
	}
	pc.OptionA.clamp()
	pc.OptionB.clamp()
	return &pc, nil
}

func bound(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}

func (o *Option) clamp() {
	o.HealthImpact = bound(o.HealthImpact, MaxHealthImpact)
	o.VibeImpact = bound(o.VibeImpact, MaxVibeImpact)
	o.WealthImpact = bound(o.WealthImpact, MaxWealthImpact)
	o.LifeMissionImpact = bound(o.LifeMissionImpact, MaxMissionImpact)
}
