package heartbeat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jwebster45206/heartbeat-engine/internal/services/events"
	"github.com/jwebster45206/heartbeat-engine/pkg/being"
	"github.com/jwebster45206/heartbeat-engine/pkg/choice"
	"github.com/jwebster45206/heartbeat-engine/pkg/status"
	"github.com/jwebster45206/heartbeat-engine/pkg/storage"
	"github.com/jwebster45206/heartbeat-engine/pkg/world"
)

// LoopState is where a character's tick loop currently is.
type LoopState string

const (
	StateStopped   LoopState = "stopped"
	StateScheduled LoopState = "scheduled"
	StateRunning   LoopState = "running"
)

// TickProcessor runs one heartbeat for a loaded character.
type TickProcessor interface {
	Process(ctx context.Context, character *being.Being, sandbox *world.Sandbox, npcs []*being.Being, playerID string) (*Result, error)
}

// SessionView is the part of the session registry the scheduler reads.
type SessionView interface {
	IsPlaying(playerID, characterID string) bool
	SocketID(playerID string) string
}

// HeartbeatUpdate is the payload of a heartbeat_update event.
type HeartbeatUpdate struct {
	CharacterID     string          `json:"characterId"`
	Date            world.Date      `json:"date"`
	Stats           being.Stats     `json:"stats"`
	CharacterAction CharacterAction `json:"characterAction"`
	NPCUpdates      []NPCUpdate     `json:"npcUpdates"`
}

// CharacterDied is the payload of a character_died event.
type CharacterDied struct {
	CharacterID string     `json:"characterId"`
	Date        world.Date `json:"date"`
	DeathReason string     `json:"deathReason"`
}

type loop struct {
	characterID string
	playerID    string
	state       LoopState
	cancel      context.CancelFunc
	lastReemit  time.Time
}

// SchedulerConfig wires a Scheduler.
type SchedulerConfig struct {
	Store     storage.Storage
	Processor TickProcessor
	Choices   choice.Store
	Sessions  SessionView
	Publisher events.Publisher
	Locks     *CharacterLocks
	Tuning    Tuning
	Logger    *slog.Logger
}

// Scheduler keeps one tick loop per playing character.
type Scheduler struct {
	store     storage.Storage
	processor TickProcessor
	choices   choice.Store
	sessions  SessionView
	publisher events.Publisher
	locks     *CharacterLocks
	tuning    Tuning
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	loops    map[string]*loop
	inFlight map[string]bool // outlives loops so a restarted loop cannot overlap an old tick

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	locks := cfg.Locks
	if locks == nil {
		locks = NewCharacterLocks()
	}
	return &Scheduler{
		store:     cfg.Store,
		processor: cfg.Processor,
		choices:   cfg.Choices,
		sessions:  cfg.Sessions,
		publisher: cfg.Publisher,
		locks:     locks,
		tuning:    cfg.Tuning.Normalize(),
		logger:    cfg.Logger,
		now:       time.Now,
		loops:     make(map[string]*loop),
		inFlight:  make(map[string]bool),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins ticking a character immediately. Starting a character that
// already has a loop only re-attaches the player.
func (s *Scheduler) Start(playerID, characterID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.loops[characterID]; ok {
		l.playerID = playerID
		return
	}
	if s.ctx.Err() != nil {
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	l := &loop{
		characterID: characterID,
		playerID:    playerID,
		state:       StateScheduled,
		cancel:      cancel,
	}
	s.loops[characterID] = l

	s.wg.Add(1)
	go s.run(ctx, l)

	s.logger.Info("Heartbeat loop started", "character_id", characterID, "player_id", playerID)
}

// Stop cancels a character's loop. A tick already running finishes and is
// not rescheduled.
func (s *Scheduler) Stop(characterID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(characterID, nil)
}

func (s *Scheduler) stopLocked(characterID string, only *loop) {
	l, ok := s.loops[characterID]
	if !ok || (only != nil && l != only) {
		return
	}
	delete(s.loops, characterID)
	l.state = StateStopped
	l.cancel()
	s.logger.Info("Heartbeat loop stopped", "character_id", characterID)
}

// State reports the loop state for a character.
func (s *Scheduler) State(characterID string) LoopState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.loops[characterID]; ok {
		return l.state
	}
	return StateStopped
}

// Active returns the number of live loops.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loops)
}

// Shutdown stops every loop and waits for running ticks to finish.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	for id := range s.loops {
		s.stopLocked(id, nil)
	}
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, l *loop) {
	defer s.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		next, keep := s.tick(ctx, l)

		s.mu.Lock()
		if ctx.Err() != nil {
			s.mu.Unlock()
			return
		}
		if !keep {
			s.stopLocked(l.characterID, l)
			s.mu.Unlock()
			return
		}
		l.state = StateScheduled
		s.mu.Unlock()

		timer.Reset(next)
	}
}

func (s *Scheduler) acquire(l *loop) (playerID string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[l.characterID] {
		return l.playerID, false
	}
	s.inFlight[l.characterID] = true
	l.state = StateRunning
	return l.playerID, true
}

func (s *Scheduler) release(characterID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, characterID)
}

func (s *Scheduler) playerOf(l *loop) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return l.playerID
}

// tick runs one scheduled heartbeat and returns the delay before the next
// one, or keep=false when the loop should end.
func (s *Scheduler) tick(loopCtx context.Context, l *loop) (next time.Duration, keep bool) {
	id := l.characterID
	log := s.logger.With("character_id", id)

	if !s.sessions.IsPlaying(s.playerOf(l), id) {
		log.Info("Session no longer playing this character")
		return 0, false
	}

	playerID, ok := s.acquire(l)
	if !ok {
		return s.tuning.InFlightRetry, true
	}
	defer s.release(id)

	unlock := s.locks.Lock(id)
	defer unlock()

	// Storage and generation calls are allowed to finish after a stop.
	ctx := context.WithoutCancel(loopCtx)
	next = s.tuning.FallbackDelay

	character, err := s.store.LoadBeing(ctx, id)
	if err != nil {
		log.Error("Failed to load character", "error", err)
		return next, true
	}
	if character == nil || character.IsDeleted || character.IsDead {
		log.Info("Character unavailable, stopping loop")
		return 0, false
	}

	sandbox, err := s.store.LoadSandbox(ctx, character.SandboxID)
	if err != nil {
		log.Error("Failed to load sandbox", "error", err)
		return next, true
	}
	if sandbox == nil {
		log.Info("Sandbox missing, stopping loop", "sandbox_id", character.SandboxID)
		return 0, false
	}
	next = sandbox.DayDuration()

	if character.ActiveHeartbeatID != "" {
		wait, err := s.awaitChoice(ctx, l, playerID, character)
		if err != nil {
			log.Error("Failed to check pending choice", "error", err)
			return next, true
		}
		if wait {
			return next, true
		}
	}

	npcs, err := s.store.ListNPCs(ctx, id)
	if err != nil {
		log.Error("Failed to load npcs", "error", err)
		return next, true
	}
	npcs = liveNPCs(npcs)

	result, err := s.processor.Process(ctx, character, sandbox, npcs, playerID)
	if err != nil {
		log.Error("Heartbeat tick failed", "error", err)
		return next, true
	}

	if result.IsDead {
		s.publish(ctx, playerID, events.Event{
			Type: events.EventTypeCharacterDied,
			Data: CharacterDied{CharacterID: id, Date: result.Date, DeathReason: result.DeathReason},
		})
		return 0, false
	}

	s.publish(ctx, playerID, events.Event{
		Type: events.EventTypeHeartbeatUpdate,
		Data: HeartbeatUpdate{
			CharacterID:     id,
			Date:            result.Date,
			Stats:           result.Stats,
			CharacterAction: result.CharacterAction,
			NPCUpdates:      result.NPCUpdates,
		},
	})
	return next, true
}

// awaitChoice handles a character with an active heartbeat id. It returns
// wait=true while the player still owes an answer or generation is running.
// An orphaned id is cleared so the day can advance.
func (s *Scheduler) awaitChoice(ctx context.Context, l *loop, playerID string, c *being.Being) (wait bool, err error) {
	pc, err := s.choices.Get(ctx, c.ActiveHeartbeatID)
	if err != nil {
		return true, fmt.Errorf("failed to get pending choice: %w", err)
	}

	if pc != nil {
		now := s.now()
		s.mu.Lock()
		due := now.Sub(l.lastReemit) > s.tuning.ReemitInterval
		if due {
			l.lastReemit = now
		}
		s.mu.Unlock()

		if due {
			s.publish(ctx, playerID, events.Event{
				Type: events.EventTypeChoicesReady,
				Data: ChoicesReady{
					CharacterID: c.ID,
					HeartbeatID: c.ActiveHeartbeatID,
					Choices:     pc,
					Signals:     []status.Signal{},
				},
			})
		}
		return true, nil
	}

	if c.IsProcessing {
		return true, nil
	}

	s.logger.Info("Clearing orphaned heartbeat id",
		"character_id", c.ID,
		"heartbeat_id", c.ActiveHeartbeatID)
	c.ActiveHeartbeatID = ""
	if err := s.store.SaveBeing(ctx, c); err != nil {
		return true, fmt.Errorf("failed to save character: %w", err)
	}
	return false, nil
}

func (s *Scheduler) publish(ctx context.Context, playerID string, ev events.Event) {
	if s.sessions.SocketID(playerID) == "" {
		return
	}
	if err := s.publisher.Publish(ctx, playerID, ev); err != nil {
		s.logger.Warn("Failed to publish event", "player_id", playerID, "event_type", ev.Type, "error", err)
	}
}

func liveNPCs(npcs []*being.Being) []*being.Being {
	out := npcs[:0]
	for _, n := range npcs {
		if !n.IsDeleted {
			out = append(out, n)
		}
	}
	return out
}
