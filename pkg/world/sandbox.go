package world

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultDayDurationMs = 6000
	DefaultCurrency      = "USD"
)

// Sandbox is a player's world: its calendar, tick cadence and heartbeat counters.
// Only the heartbeat processor mutates it while a character is alive.
type Sandbox struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	StartDate   Date `json:"start_date"`
	CurrentDate Date `json:"current_date"`

	DayDurationMs       int       `json:"day_duration_ms"`
	HeartbeatCount      int       `json:"heartbeat_count"`
	DaysSinceLastSignal int       `json:"days_since_last_signal"`
	LastHeartbeatAt     time.Time `json:"last_heartbeat_at,omitempty"`

	FreeWillEnabled bool   `json:"free_will_enabled,omitempty"`
	Currency        string `json:"currency,omitempty"`
}

// NewSandbox creates a sandbox starting on the given date with default cadence.
func NewSandbox(userID string, start Date) *Sandbox {
	return &Sandbox{
		ID:            uuid.New().String(),
		UserID:        userID,
		StartDate:     start,
		CurrentDate:   start,
		DayDurationMs: DefaultDayDurationMs,
		Currency:      DefaultCurrency,
	}
}

// DayDuration returns the real-time length of one simulated day.
// Unset or non-positive durations fall back to the default.
func (s *Sandbox) DayDuration() time.Duration {
	if s.DayDurationMs <= 0 {
		return DefaultDayDurationMs * time.Millisecond
	}
	return time.Duration(s.DayDurationMs) * time.Millisecond
}

// AdvanceDay moves the calendar forward one day and bumps the heartbeat counter.
func (s *Sandbox) AdvanceDay(now time.Time) {
	s.CurrentDate = s.CurrentDate.Next()
	s.HeartbeatCount++
	s.LastHeartbeatAt = now
}

// Object is something a being owns, created by a purchase.
type Object struct {
	ID            string `json:"id"`
	SandboxID     string `json:"sandbox_id"`
	Name          string `json:"name"`
	Type          string `json:"type,omitempty"`
	Description   string `json:"description,omitempty"`
	OwnerID       string `json:"owner_id"`
	OwnerType     string `json:"owner_type"` // "character" or "npc"
	PurchasePrice int    `json:"purchase_price"`
	AcquiredOn    Date   `json:"acquired_on"`
}

// Event is a shared world event listing every being that took part.
type Event struct {
	ID               string   `json:"id"`
	CharacterID      string   `json:"character_id"`
	UserID           string   `json:"user_id,omitempty"`
	Category         string   `json:"category"`
	Date             Date     `json:"date"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	LocationName     string   `json:"location_name,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	ParticipantIDs   []string `json:"participant_ids"`
	ParticipantNames []string `json:"participant_names"`
}
