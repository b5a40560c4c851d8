package heartbeat

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/jwebster45206/heartbeat-engine/pkg/being"
	"github.com/jwebster45206/heartbeat-engine/pkg/world"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const crossroadsJSON = `{
	"situation": "An old friend offers a spot on a sailing trip.",
	"option_a": {"action": "joins the trip", "place": "Marina", "health_impact": 3, "vibe_impact": 8, "wealth_impact": -400, "life_mission_impact": -2, "reaction": "Salt air helps."},
	"option_b": {"action": "stays to work", "place": "Studio", "health_impact": -1, "vibe_impact": -3, "wealth_impact": 150, "life_mission_impact": 4, "reaction": "Progress, at a price."}
}`

func fixture(start world.Date) (*being.Being, *world.Sandbox) {
	sb := world.NewSandbox("user-1", start)
	c := being.NewCharacter("user-1", sb.ID, "Ada", "Lovelace", "Build the engine")
	c.Current = being.Location{City: "London", Country: "UK"}
	c.Home = c.Current
	c.LifeMission.Progress = 60 // clear of the PURSUING boundary so decay alone fires no signal
	return c, sb
}

func ptr(f float64) *float64 { return &f }

type fakePlanner struct {
	mu    sync.Mutex
	calls int
	seen  []string
	err   error
	size  int
}

func (p *fakePlanner) PlanWeek(_ context.Context, sb *world.Sandbox, beings []*being.Being) (map[string][]being.PlannedAction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	size := p.size
	if size == 0 {
		size = 7
	}
	out := make(map[string][]being.PlannedAction, len(beings))
	for _, b := range beings {
		p.seen = append(p.seen, b.ID)
		week := make([]being.PlannedAction, size)
		for i := range week {
			d := sb.CurrentDate.AddDays(i)
			week[i] = being.PlannedAction{Action: "planned", StartDate: &d}
		}
		out[b.ID] = week
	}
	return out, nil
}

type stubSubscriber struct {
	name string
	err  error
	log  *[]string
}

func (s stubSubscriber) Name() string { return s.name }

func (s stubSubscriber) OnHeartbeat(context.Context, *TickContext) error {
	*s.log = append(*s.log, s.name)
	return s.err
}
