package being

import "github.com/jwebster45206/heartbeat-engine/pkg/world"

// ActionType tags what a planned action does beyond moving the being.
type ActionType string

const (
	ActionMove           ActionType = "move"
	ActionDiscoverPlace  ActionType = "discover_place"
	ActionDiscoverPerson ActionType = "discover_person"
	ActionBuy            ActionType = "buy"
	ActionEvent          ActionType = "event"
)

// Purchase is the payload of a buy action.
type Purchase struct {
	ObjectType  string `json:"object_type,omitempty"`
	Name        string `json:"name"`
	Price       int    `json:"price"`
	Description string `json:"description,omitempty"`
}

// PlannedAction is one queued unit of behavior. Exactly one is consumed per being per tick.
type PlannedAction struct {
	Action    string      `json:"action"`
	Reason    string      `json:"reason,omitempty"`
	Place     string      `json:"place,omitempty"`
	City      string      `json:"city,omitempty"`
	Country   string      `json:"country,omitempty"`
	Latitude  *float64    `json:"latitude,omitempty"`
	Longitude *float64    `json:"longitude,omitempty"`
	StartDate *world.Date `json:"start_date,omitempty"`
	IsIdle    bool        `json:"is_idle,omitempty"`

	ActionType        ActionType        `json:"action_type,omitempty"`
	DiscoveryPlace    *DiscoveredPlace  `json:"discovery_place,omitempty"`
	DiscoveryPerson   *DiscoveredPerson `json:"discovery_person,omitempty"`
	Purchase          *Purchase         `json:"purchase,omitempty"`
	EventParticipants []string          `json:"event_participants,omitempty"`
}

// Type returns the action type, defaulting to move.
func (a PlannedAction) Type() ActionType {
	if a.ActionType == "" {
		return ActionMove
	}
	return a.ActionType
}

// HasCoordinates reports whether the action carries a destination position.
func (a PlannedAction) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// PopAction removes and returns the head of a queue. ok is false for an empty queue.
// Remaining entries keep their order.
func PopAction(queue *[]PlannedAction) (PlannedAction, bool) {
	if queue == nil || len(*queue) == 0 {
		return PlannedAction{}, false
	}
	head := (*queue)[0]
	*queue = (*queue)[1:]
	return head, true
}
