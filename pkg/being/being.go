package being

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/heartbeat-engine/pkg/world"
)

// LifeMission is the long-running goal a character works toward.
type LifeMission struct {
	Name     string  `json:"name"`
	Progress float64 `json:"progress"` // 0-100
}

// DiscoveredPlace is a place an NPC has come across.
type DiscoveredPlace struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// DiscoveredPerson is someone a being has met.
type DiscoveredPerson struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name,omitempty"`
	Description string `json:"description,omitempty"`
	Occupation  string `json:"occupation,omitempty"`
}

// Location is where a being currently is.
type Location struct {
	Place     string   `json:"place,omitempty"`
	City      string   `json:"city,omitempty"`
	Country   string   `json:"country,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Being is the common shape for the player character and NPCs.
// Character-only and NPC-only fields are left empty on the other kind.
type Being struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	SandboxID  string `json:"sandbox_id"`
	Species    string `json:"species,omitempty"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name,omitempty"`
	Occupation string `json:"occupation,omitempty"`
	SoulMD     string `json:"soul_md,omitempty"`
	LifeMD     string `json:"life_md,omitempty"`

	HealthIndex     float64 `json:"health_index"`
	VibeIndex       float64 `json:"vibe_index"`
	WealthIndex     int     `json:"wealth_index"`
	MonthlyIncome   int     `json:"monthly_income,omitempty"`
	MonthlyExpenses int     `json:"monthly_expenses,omitempty"`

	Home          Location `json:"home"`
	Current       Location `json:"current"`
	CurrentAction string   `json:"current_action,omitempty"`

	// Character fields
	IsMain            bool            `json:"is_main,omitempty"`
	LifeMission       *LifeMission    `json:"life_mission,omitempty"`
	PlayerActionQueue []PlannedAction `json:"player_action_queue,omitempty"`
	AIActionQueue     []PlannedAction `json:"ai_action_queue,omitempty"`
	ActiveHeartbeatID string          `json:"active_heartbeat_id,omitempty"`
	IsProcessing      bool            `json:"is_processing,omitempty"`
	IsDead            bool            `json:"is_dead,omitempty"`
	DeathReason       string          `json:"death_reason,omitempty"`
	DeathDate         *world.Date     `json:"death_date,omitempty"`
	IsDeleted         bool            `json:"is_deleted,omitempty"`

	// NPC fields
	MainCharacterID    string             `json:"main_character_id,omitempty"`
	RelationshipIndex  *float64           `json:"relationship_index,omitempty"`
	RelationshipToMain string             `json:"relationship_to_main,omitempty"`
	DiscoveredPlaces   []DiscoveredPlace  `json:"discovered_places,omitempty"`
	DiscoveredPeople   []DiscoveredPerson `json:"discovered_people,omitempty"`
}

// NewCharacter creates a living player character with starting stats.
func NewCharacter(userID, sandboxID, firstName, lastName, mission string) *Being {
	return &Being{
		ID:              uuid.New().String(),
		UserID:          userID,
		SandboxID:       sandboxID,
		Species:         "human",
		FirstName:       firstName,
		LastName:        lastName,
		IsMain:          true,
		HealthIndex:     75,
		VibeIndex:       75,
		WealthIndex:     5000,
		MonthlyIncome:   3000,
		MonthlyExpenses: 2000,
		LifeMission:     &LifeMission{Name: mission, Progress: 50},
	}
}

// NewNPC creates an NPC attached to a main character.
func NewNPC(main *Being, firstName, lastName string) *Being {
	rel := 50.0
	return &Being{
		ID:                uuid.New().String(),
		UserID:            main.UserID,
		SandboxID:         main.SandboxID,
		Species:           "human",
		FirstName:         firstName,
		LastName:          lastName,
		HealthIndex:       75,
		VibeIndex:         75,
		MainCharacterID:   main.ID,
		RelationshipIndex: &rel,
		Home:              main.Home,
		Current:           main.Home,
	}
}

// FullName joins first and last name.
func (b *Being) FullName() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", b.FirstName, b.LastName))
}

// MissionProgress returns the life mission progress, or 0 without a mission.
func (b *Being) MissionProgress() float64 {
	if b.LifeMission == nil {
		return 0
	}
	return b.LifeMission.Progress
}

// AppendLife adds one line to the being's life log.
func (b *Being) AppendLife(line string) {
	b.LifeMD += "\n" + line
}

// RecentLife returns at most the last n bytes of the life log.
func (b *Being) RecentLife(n int) string {
	if len(b.LifeMD) <= n {
		return b.LifeMD
	}
	return b.LifeMD[len(b.LifeMD)-n:]
}

// KnowsPlace reports whether the being already discovered a place by name (case-insensitive).
func (b *Being) KnowsPlace(name string) bool {
	for _, p := range b.DiscoveredPlaces {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// DeepCopy returns an independent copy of the being.
func (b *Being) DeepCopy() (*Being, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal being: %w", err)
	}
	var out Being
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal being: %w", err)
	}
	return &out, nil
}
