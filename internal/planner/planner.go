package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jwebster45206/heartbeat-engine/internal/services"
	"github.com/jwebster45206/heartbeat-engine/pkg/being"
	"github.com/jwebster45206/heartbeat-engine/pkg/world"
)

// DaysPerPlan is how many daily actions one weekly plan holds.
const DaysPerPlan = 7

// Planner produces fresh action queues for NPCs. PlanWeek is all-or-nothing:
// on error the caller must not touch any queue.
type Planner interface {
	PlanWeek(ctx context.Context, sandbox *world.Sandbox, npcs []*being.Being) (map[string][]being.PlannedAction, error)
}

const systemPrompt = "You generate realistic weekly plans for NPCs in a life simulation set in the real world."

// LLMPlanner asks a text model for one week per NPC, a few NPCs at a time.
type LLMPlanner struct {
	llm         services.LLMService
	logger      *slog.Logger
	concurrency int
}

var _ Planner = (*LLMPlanner)(nil)

func NewLLMPlanner(llm services.LLMService, logger *slog.Logger) *LLMPlanner {
	return &LLMPlanner{llm: llm, logger: logger, concurrency: 5}
}

type weeklyPlan struct {
	Actions []struct {
		Action    string   `json:"action"`
		Reason    string   `json:"reason"`
		City      string   `json:"city"`
		Country   string   `json:"country"`
		Place     string   `json:"place"`
		Longitude *float64 `json:"longitude"`
		Latitude  *float64 `json:"latitude"`
	} `json:"actions"`
}

func (p *LLMPlanner) PlanWeek(ctx context.Context, sandbox *world.Sandbox, npcs []*being.Being) (map[string][]being.PlannedAction, error) {
	type result struct {
		id      string
		actions []being.PlannedAction
		err     error
	}

	results := make(chan result, len(npcs))
	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	for _, npc := range npcs {
		if npc.IsDead || npc.IsDeleted {
			continue
		}
		wg.Add(1)
		go func(npc *being.Being) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			actions, err := p.planOne(ctx, sandbox, npc)
			results <- result{id: npc.ID, actions: actions, err: err}
		}(npc)
	}
	wg.Wait()
	close(results)

	plans := make(map[string][]being.PlannedAction, len(npcs))
	for r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("failed to plan week for npc %s: %w", r.id, r.err)
		}
		plans[r.id] = r.actions
	}
	p.logger.Debug("Planned NPC week", "sandbox_id", sandbox.ID, "npcs", len(plans))
	return plans, nil
}

func (p *LLMPlanner) planOne(ctx context.Context, sandbox *world.Sandbox, npc *being.Being) ([]being.PlannedAction, error) {
	raw, err := services.CompleteJSON(ctx, p.llm, systemPrompt, buildPrompt(sandbox, npc))
	if err != nil {
		return nil, err
	}

	var plan weeklyPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	if len(plan.Actions) == 0 {
		return nil, fmt.Errorf("plan has no actions")
	}
	if len(plan.Actions) > DaysPerPlan {
		plan.Actions = plan.Actions[:DaysPerPlan]
	}

	out := make([]being.PlannedAction, 0, len(plan.Actions))
	for i, a := range plan.Actions {
		start := sandbox.CurrentDate.AddDays(i)
		out = append(out, being.PlannedAction{
			Action:    a.Action,
			Reason:    a.Reason,
			City:      a.City,
			Country:   a.Country,
			Place:     a.Place,
			Latitude:  a.Latitude,
			Longitude: a.Longitude,
			StartDate: &start,
		})
	}
	return out, nil
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

func buildPrompt(sandbox *world.Sandbox, npc *being.Being) string {
	var b strings.Builder
	b.WriteString("You are planning a week for an NPC in a life simulation.\n\nNPC:\n")
	fmt.Fprintf(&b, "Name: %s\n", npc.FullName())
	fmt.Fprintf(&b, "Occupation: %s\n", orUnknown(npc.Occupation))
	fmt.Fprintf(&b, "Soul: %s\n", orUnknown(npc.SoulMD))
	fmt.Fprintf(&b, "Life: %s\n", npc.RecentLife(300))
	fmt.Fprintf(&b, "Relationship to player: %s\n", orUnknown(npc.RelationshipToMain))
	fmt.Fprintf(&b, "Home: %s, %s\n", orUnknown(npc.Home.City), orUnknown(npc.Home.Country))
	current := npc.Current.Place
	if current == "" {
		current = npc.Current.City
	}
	fmt.Fprintf(&b, "Current location: %s\n\n", orUnknown(current))
	fmt.Fprintf(&b, "DATE: %s\n\n", sandbox.CurrentDate.Short())
	fmt.Fprintf(&b, `Generate %d daily actions for this NPC's week. Each action should:
1. Be realistic for their personality and occupation
2. Include a specific real-world destination with real coordinates
3. Mix routine (work, home) with variety (social, errands, leisure)

Return JSON: { "actions": [{ "action": "...", "reason": "...", "city": "...", "country": "...", "place": "...", "longitude": N, "latitude": N }] }

action: first person, max 5 words, -ing verbs.
reason: first person, exactly 7 words.`, DaysPerPlan)
	return b.String()
}
