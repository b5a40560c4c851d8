package heartbeat

import (
	"context"
	"errors"
	"testing"

	"github.com/jwebster45206/heartbeat-engine/internal/services"
	"github.com/jwebster45206/heartbeat-engine/internal/services/events"
	"github.com/jwebster45206/heartbeat-engine/internal/session"
	"github.com/jwebster45206/heartbeat-engine/pkg/being"
	"github.com/jwebster45206/heartbeat-engine/pkg/choice"
	"github.com/jwebster45206/heartbeat-engine/pkg/status"
	"github.com/jwebster45206/heartbeat-engine/pkg/storage"
	"github.com/jwebster45206/heartbeat-engine/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(store storage.Storage, gen *Generator) *Processor {
	pipeline := NewPipeline(quietLogger(), NewDecay(DefaultTuning()))
	return NewProcessor(store, pipeline, gen, DefaultTuning(), quietLogger())
}

func TestProcess_YearWrapWithEmptyQueue(t *testing.T) {
	store := storage.NewMockStorage()
	c, sb := fixture(world.Date{Year: 2026, Month: 12, Day: 31})
	c.CurrentAction = "reading"

	res, err := newTestProcessor(store, nil).Process(context.Background(), c, sb, nil, "player-1")
	require.NoError(t, err)

	assert.Equal(t, world.Date{Year: 2027, Month: 1, Day: 1}, sb.CurrentDate)
	assert.Equal(t, world.Date{Year: 2027, Month: 1, Day: 1}, res.Date)
	assert.Equal(t, 1, sb.HeartbeatCount)
	assert.False(t, sb.LastHeartbeatAt.IsZero())
	assert.Empty(t, c.CurrentAction)
	assert.Empty(t, res.CharacterAction.CurrentAction)
	assert.False(t, res.IsDead)
	assert.NotEmpty(t, res.HeartbeatID)

	assert.Equal(t, -0.3, res.StatChanges.Health)
	assert.Equal(t, -0.5, res.StatChanges.Vibe)
	assert.Equal(t, -67, res.StatChanges.Money)

	stored, err := store.LoadSandbox(context.Background(), sb.ID)
	require.NoError(t, err)
	assert.Equal(t, world.Date{Year: 2027, Month: 1, Day: 1}, stored.CurrentDate)
	assert.Equal(t, 1, store.SaveCount(c.ID))
}

func TestProcess_PlayerActionMovesCharacter(t *testing.T) {
	store := storage.NewMockStorage()
	c, sb := fixture(world.Date{Year: 2026, Month: 12, Day: 31})
	c.PlayerActionQueue = []being.PlannedAction{
		{Action: "walks the dog", Place: "Hyde Park", City: "London", Country: "UK", Latitude: ptr(51.5), Longitude: ptr(-0.16)},
		{Action: "second"},
	}

	res, err := newTestProcessor(store, nil).Process(context.Background(), c, sb, nil, "player-1")
	require.NoError(t, err)

	assert.Equal(t, "walks the dog", c.CurrentAction)
	assert.Equal(t, "Hyde Park", c.Current.Place)
	assert.Equal(t, 51.5, *c.Current.Latitude)
	assert.Len(t, c.PlayerActionQueue, 1)
	assert.Len(t, res.CharacterAction.PlayerActionQueue, 1)
	assert.Contains(t, c.LifeMD, "Friday, 1st jan, 2027: walks the dog at Hyde Park")
	assert.True(t, c.KnowsPlace("hyde park"))
}

func TestProcess_NPCCannotAffordPurchase(t *testing.T) {
	store := storage.NewMockStorage()
	c, sb := fixture(world.Date{Year: 2026, Month: 6, Day: 1})
	npc := being.NewNPC(c, "Bo", "Lin")
	npc.WealthIndex = 30
	npc.AIActionQueue = []being.PlannedAction{{
		Action:     "visits market",
		ActionType: being.ActionBuy,
		Purchase:   &being.Purchase{Name: "bike", Price: 50},
	}}

	res, err := newTestProcessor(store, nil).Process(context.Background(), c, sb, []*being.Being{npc}, "player-1")
	require.NoError(t, err)

	assert.Equal(t, 30, npc.WealthIndex)
	assert.Empty(t, store.Objects())
	assert.Empty(t, npc.AIActionQueue)
	require.Len(t, res.NPCUpdates, 1)
	assert.Equal(t, 30, res.NPCUpdates[0].WealthIndex)
	assert.Equal(t, "visits market", res.NPCUpdates[0].CurrentAction)
}

func TestProcess_NPCPurchase(t *testing.T) {
	store := storage.NewMockStorage()
	c, sb := fixture(world.Date{Year: 2026, Month: 6, Day: 1})
	npc := being.NewNPC(c, "Bo", "Lin")
	npc.WealthIndex = 80
	npc.AIActionQueue = []being.PlannedAction{{
		Action:     "visits market",
		ActionType: being.ActionBuy,
		Purchase:   &being.Purchase{Name: "bike", ObjectType: "vehicle", Price: 50},
	}}

	_, err := newTestProcessor(store, nil).Process(context.Background(), c, sb, []*being.Being{npc}, "player-1")
	require.NoError(t, err)

	assert.Equal(t, 30, npc.WealthIndex)
	objs := store.Objects()
	require.Len(t, objs, 1)
	assert.Equal(t, "bike", objs[0].Name)
	assert.Equal(t, npc.ID, objs[0].OwnerID)
	assert.Equal(t, "npc", objs[0].OwnerType)
	assert.Equal(t, world.Date{Year: 2026, Month: 6, Day: 2}, objs[0].AcquiredOn)
}

func TestProcess_DiscoverPersonCreatesAcquaintance(t *testing.T) {
	store := storage.NewMockStorage()
	c, sb := fixture(world.Date{Year: 2026, Month: 6, Day: 1})
	meet := being.PlannedAction{
		Action:          "meets a stranger",
		ActionType:      being.ActionDiscoverPerson,
		City:            "Porto",
		DiscoveryPerson: &being.DiscoveredPerson{FirstName: " Maya ", LastName: "Ortiz", Occupation: "luthier"},
	}
	c.PlayerActionQueue = []being.PlannedAction{meet, meet}
	p := newTestProcessor(store, nil)

	_, err := p.Process(context.Background(), c, sb, nil, "player-1")
	require.NoError(t, err)

	npcs, err := store.ListNPCs(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, npcs, 1)
	assert.Equal(t, "Maya", npcs[0].FirstName)
	assert.Equal(t, "acquaintance", npcs[0].RelationshipToMain)
	assert.Equal(t, "Porto", npcs[0].Home.City)
	assert.Equal(t, "luthier", npcs[0].Occupation)
	require.Len(t, c.DiscoveredPeople, 1)

	// already known: no second NPC
	_, err = p.Process(context.Background(), c, sb, npcs, "player-1")
	require.NoError(t, err)
	npcs, _ = store.ListNPCs(context.Background(), c.ID)
	assert.Len(t, npcs, 1)
	assert.Len(t, c.DiscoveredPeople, 2)
}

func TestProcess_DiscoverPlaceDeduplicates(t *testing.T) {
	store := storage.NewMockStorage()
	c, sb := fixture(world.Date{Year: 2026, Month: 6, Day: 1})
	npc := being.NewNPC(c, "Bo", "Lin")
	npc.DiscoveredPlaces = []being.DiscoveredPlace{{Name: "ribeira"}}
	npc.AIActionQueue = []being.PlannedAction{
		{Action: "strolls", Place: "Ribeira", Latitude: ptr(41.14), Longitude: ptr(-8.61)},
		{
			Action:         "finds a bookshop",
			Place:          "Livraria Lello",
			ActionType:     being.ActionDiscoverPlace,
			Latitude:       ptr(41.15),
			Longitude:      ptr(-8.62),
			DiscoveryPlace: &being.DiscoveredPlace{Name: "Livraria Lello", Description: "ornate staircase"},
		},
	}
	p := newTestProcessor(store, nil)

	_, err := p.Process(context.Background(), c, sb, []*being.Being{npc}, "player-1")
	require.NoError(t, err)
	assert.Len(t, npc.DiscoveredPlaces, 1)

	_, err = p.Process(context.Background(), c, sb, []*being.Being{npc}, "player-1")
	require.NoError(t, err)
	require.Len(t, npc.DiscoveredPlaces, 2)
	assert.Equal(t, "ornate staircase", npc.DiscoveredPlaces[1].Description)
	assert.Equal(t, 41.15, *npc.DiscoveredPlaces[1].Latitude)
}

func TestProcess_EventRecordsParticipants(t *testing.T) {
	store := storage.NewMockStorage()
	c, sb := fixture(world.Date{Year: 2026, Month: 6, Day: 1})
	npc := being.NewNPC(c, "Bo", "Lin")
	npc.AIActionQueue = []being.PlannedAction{{
		Action:            "hosts dinner",
		Reason:            "birthday",
		Place:             "Home",
		ActionType:        being.ActionEvent,
		EventParticipants: []string{c.ID, "ghost"},
	}}

	_, err := newTestProcessor(store, nil).Process(context.Background(), c, sb, []*being.Being{npc}, "player-1")
	require.NoError(t, err)

	evs := store.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, "mundane", evs[0].Category)
	assert.Equal(t, "Bo Lin - hosts dinner", evs[0].Title)
	assert.Equal(t, []string{npc.ID, c.ID, "ghost"}, evs[0].ParticipantIDs)
	assert.Equal(t, []string{"Bo Lin", "Ada Lovelace", "Unknown"}, evs[0].ParticipantNames)
}

func TestProcess_FreeWillAndIdle(t *testing.T) {
	t.Run("free will takes from the ai queue", func(t *testing.T) {
		c, sb := fixture(world.Date{Year: 2026, Month: 6, Day: 1})
		sb.FreeWillEnabled = true
		c.AIActionQueue = []being.PlannedAction{{Action: "goes surfing"}}
		_, err := newTestProcessor(storage.NewMockStorage(), nil).Process(context.Background(), c, sb, nil, "p")
		require.NoError(t, err)
		assert.Equal(t, "goes surfing", c.CurrentAction)
		assert.Empty(t, c.AIActionQueue)
	})

	t.Run("without free will the ai queue is untouched", func(t *testing.T) {
		c, sb := fixture(world.Date{Year: 2026, Month: 6, Day: 1})
		c.AIActionQueue = []being.PlannedAction{{Action: "goes surfing"}}
		_, err := newTestProcessor(storage.NewMockStorage(), nil).Process(context.Background(), c, sb, nil, "p")
		require.NoError(t, err)
		assert.Empty(t, c.CurrentAction)
		assert.Len(t, c.AIActionQueue, 1)
	})

	t.Run("idle consumes the slot and keeps the current action", func(t *testing.T) {
		c, sb := fixture(world.Date{Year: 2026, Month: 6, Day: 1})
		c.CurrentAction = "reading"
		c.PlayerActionQueue = []being.PlannedAction{{Action: "rests", IsIdle: true}}
		_, err := newTestProcessor(storage.NewMockStorage(), nil).Process(context.Background(), c, sb, nil, "p")
		require.NoError(t, err)
		assert.Equal(t, "reading", c.CurrentAction)
		assert.Empty(t, c.PlayerActionQueue)
		assert.NotContains(t, c.LifeMD, "rests")
	})
}

func TestProcess_DeathIsReportedOnce(t *testing.T) {
	store := storage.NewMockStorage()
	c, sb := fixture(world.Date{Year: 2026, Month: 6, Day: 1})
	c.HealthIndex = 0.3
	c.PlayerActionQueue = []being.PlannedAction{{Action: "never happens"}}
	p := newTestProcessor(store, nil)

	res, err := p.Process(context.Background(), c, sb, nil, "player-1")
	require.NoError(t, err)
	assert.True(t, res.IsDead)
	assert.Equal(t, "health", res.DeathReason)
	assert.Equal(t, 0.0, res.Stats.Health)
	assert.Len(t, c.PlayerActionQueue, 1, "no gameplay after death")

	stored, _ := store.LoadBeing(context.Background(), c.ID)
	require.NotNil(t, stored)
	assert.True(t, stored.IsDead)
	assert.Equal(t, world.Date{Year: 2026, Month: 6, Day: 2}, *stored.DeathDate)

	// a dead character no longer advances the world
	saves := store.SaveCount(c.ID)
	res, err = p.Process(context.Background(), c, sb, nil, "player-1")
	require.NoError(t, err)
	assert.True(t, res.IsDead)
	assert.Equal(t, 1, sb.HeartbeatCount)
	assert.Equal(t, world.Date{Year: 2026, Month: 6, Day: 2}, sb.CurrentDate)
	assert.Equal(t, saves, store.SaveCount(c.ID))
}

func TestProcess_SaveFailure(t *testing.T) {
	store := storage.NewMockStorage()
	store.SetSaveError(errors.New("disk full"))
	c, sb := fixture(world.Date{Year: 2026, Month: 6, Day: 1})

	_, err := newTestProcessor(store, nil).Process(context.Background(), c, sb, nil, "player-1")
	assert.Error(t, err)
}

func TestProcess_SignalsTriggerChoices(t *testing.T) {
	store := storage.NewMockStorage()
	choices := choice.NewMemoryStore()
	pub := events.NewMockPublisher()
	sessions := session.NewRegistry()
	sessions.RegisterSocket("player-1", "sock-1")
	gen := NewGenerator(services.NewMockLLMAPI(crossroadsJSON), choices, store, pub, sessions, quietLogger())

	c, sb := fixture(world.Date{Year: 2026, Month: 6, Day: 1})
	c.HealthIndex = 70.1 // crosses into AVERAGE after decay
	sb.DaysSinceLastSignal = 3

	res, err := newTestProcessor(store, gen).Process(context.Background(), c, sb, nil, "player-1")
	require.NoError(t, err)

	require.NotEmpty(t, res.Signals)
	assert.Equal(t, status.HealthShift, res.Signals[0].Type)
	assert.Equal(t, 0, sb.DaysSinceLastSignal)

	assert.Equal(t, res.HeartbeatID, c.ActiveHeartbeatID)
	assert.False(t, c.IsProcessing)
	pc, err := choices.Get(context.Background(), res.HeartbeatID)
	require.NoError(t, err)
	require.NotNil(t, pc)
	assert.Equal(t, "joins the trip", pc.OptionA.Action)
	assert.Equal(t, 1, pub.Count(events.EventTypeChoicesReady))

	stored, _ := store.LoadBeing(context.Background(), c.ID)
	assert.Equal(t, res.HeartbeatID, stored.ActiveHeartbeatID)
	assert.False(t, stored.IsProcessing)
}

func TestProcess_NoChoiceWhileOneIsActive(t *testing.T) {
	llm := services.NewMockLLMAPI(crossroadsJSON)
	store := storage.NewMockStorage()
	gen := NewGenerator(llm, choice.NewMemoryStore(), store, events.NewMockPublisher(), session.NewRegistry(), quietLogger())

	c, sb := fixture(world.Date{Year: 2026, Month: 6, Day: 1})
	c.HealthIndex = 70.1
	c.ActiveHeartbeatID = "earlier"

	res, err := newTestProcessor(store, gen).Process(context.Background(), c, sb, nil, "player-1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Signals)
	assert.Empty(t, llm.GetChatCalls())
	assert.Equal(t, "earlier", c.ActiveHeartbeatID)
}

func TestProcess_QuietCounter(t *testing.T) {
	c, sb := fixture(world.Date{Year: 2026, Month: 6, Day: 1})
	sb.DaysSinceLastSignal = 2
	p := newTestProcessor(storage.NewMockStorage(), nil)

	res, err := p.Process(context.Background(), c, sb, nil, "p")
	require.NoError(t, err)
	assert.Empty(t, res.Signals)
	assert.Equal(t, 3, sb.DaysSinceLastSignal)

	sb.DaysSinceLastSignal = status.DefaultQuietFloor
	res, err = p.Process(context.Background(), c, sb, nil, "p")
	require.NoError(t, err)
	require.Len(t, res.Signals, 1)
	assert.Equal(t, status.QuietLife, res.Signals[0].Type)
	assert.Equal(t, 0, sb.DaysSinceLastSignal)
}
