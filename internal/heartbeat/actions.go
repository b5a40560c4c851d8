package heartbeat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/heartbeat-engine/pkg/being"
	"github.com/jwebster45206/heartbeat-engine/pkg/world"
)

const eventCategoryMundane = "mundane"

// applyAction carries out the type-specific effects of one dequeued action for b.
// Actions the being cannot afford or that lack their payload are silent no-ops.
// Only persistence failures are returned.
func (p *Processor) applyAction(ctx context.Context, b *being.Being, a being.PlannedAction, tc *TickContext) error {
	kind := a.Type()

	if place := strings.TrimSpace(a.Place); place != "" && a.HasCoordinates() && !b.KnowsPlace(place) {
		dp := being.DiscoveredPlace{Name: place, Latitude: a.Latitude, Longitude: a.Longitude}
		if kind == being.ActionDiscoverPlace && a.DiscoveryPlace != nil {
			dp.Description = a.DiscoveryPlace.Description
		}
		b.DiscoveredPlaces = append(b.DiscoveredPlaces, dp)
	}

	switch kind {
	case being.ActionDiscoverPlace:
		discoverPlace(b, a)
	case being.ActionDiscoverPerson:
		return p.discoverPerson(ctx, b, a, tc)
	case being.ActionBuy:
		return p.buy(ctx, b, a, tc)
	case being.ActionEvent:
		return p.recordEvent(ctx, b, a, tc)
	}
	return nil
}

func discoverPlace(b *being.Being, a being.PlannedAction) {
	dp := a.DiscoveryPlace
	if dp == nil {
		return
	}
	name := strings.TrimSpace(dp.Name)
	if name == "" {
		name = strings.TrimSpace(a.Place)
	}
	if name == "" || b.KnowsPlace(name) {
		return
	}
	lat, lon := dp.Latitude, dp.Longitude
	if lat == nil {
		lat = a.Latitude
	}
	if lon == nil {
		lon = a.Longitude
	}
	b.DiscoveredPlaces = append(b.DiscoveredPlaces, being.DiscoveredPlace{
		Name:        name,
		Description: dp.Description,
		Latitude:    lat,
		Longitude:   lon,
	})
}

func (p *Processor) discoverPerson(ctx context.Context, b *being.Being, a being.PlannedAction, tc *TickContext) error {
	dp := a.DiscoveryPerson
	if dp == nil {
		return nil
	}
	first := strings.TrimSpace(dp.FirstName)
	if first == "" {
		return nil
	}
	b.DiscoveredPeople = append(b.DiscoveredPeople, being.DiscoveredPerson{
		FirstName:   first,
		LastName:    dp.LastName,
		Description: dp.Description,
		Occupation:  dp.Occupation,
	})

	if !b.IsMain || knownNPC(tc.NPCs, first, dp.LastName) {
		return nil
	}

	main := tc.Character
	npc := being.NewNPC(main, first, dp.LastName)
	npc.Occupation = dp.Occupation
	npc.SoulMD = dp.Description
	npc.RelationshipToMain = "acquaintance"

	loc := main.Current
	loc.Place = ""
	if a.HasCoordinates() {
		loc.Latitude, loc.Longitude = a.Latitude, a.Longitude
	}
	if a.City != "" {
		loc.City = a.City
	}
	if a.Country != "" {
		loc.Country = a.Country
	}
	npc.Home, npc.Current = loc, loc

	if err := p.store.SaveBeing(ctx, npc); err != nil {
		return fmt.Errorf("failed to save discovered npc: %w", err)
	}
	p.logger.Info("Main character met someone new",
		"character_id", main.ID,
		"npc_id", npc.ID,
		"name", npc.FullName())
	return nil
}

func knownNPC(npcs []*being.Being, first, last string) bool {
	for _, n := range npcs {
		if n.IsDeleted {
			continue
		}
		if strings.EqualFold(n.FirstName, first) && (last == "" || strings.EqualFold(n.LastName, last)) {
			return true
		}
	}
	return false
}

func (p *Processor) buy(ctx context.Context, b *being.Being, a being.PlannedAction, tc *TickContext) error {
	pu := a.Purchase
	if pu == nil || b.WealthIndex < pu.Price {
		return nil
	}

	ownerType := "npc"
	if b.IsMain {
		ownerType = "character"
	}
	obj := &world.Object{
		ID:            uuid.New().String(),
		SandboxID:     tc.Sandbox.ID,
		Name:          pu.Name,
		Type:          pu.ObjectType,
		Description:   pu.Description,
		OwnerID:       b.ID,
		OwnerType:     ownerType,
		PurchasePrice: pu.Price,
		AcquiredOn:    tc.Sandbox.CurrentDate,
	}
	if err := p.store.CreateObject(ctx, obj); err != nil {
		return fmt.Errorf("failed to create object: %w", err)
	}
	b.WealthIndex -= pu.Price
	return nil
}

func (p *Processor) recordEvent(ctx context.Context, b *being.Being, a being.PlannedAction, tc *TickContext) error {
	ids := append([]string{b.ID}, a.EventParticipants...)
	names := []string{b.FullName()}
	for _, id := range a.EventParticipants {
		name := "Unknown"
		for _, n := range tc.NPCs {
			if n.ID == id {
				name = n.FullName()
				break
			}
		}
		if id == tc.Character.ID {
			name = tc.Character.FullName()
		}
		names = append(names, name)
	}

	ev := &world.Event{
		ID:               uuid.New().String(),
		CharacterID:      tc.Character.ID,
		UserID:           tc.Character.UserID,
		Category:         eventCategoryMundane,
		Date:             tc.Sandbox.CurrentDate,
		Title:            fmt.Sprintf("%s - %s", b.FullName(), a.Action),
		Description:      a.Reason,
		LocationName:     a.Place,
		Latitude:         a.Latitude,
		Longitude:        a.Longitude,
		ParticipantIDs:   ids,
		ParticipantNames: names,
	}
	if err := p.store.CreateWorldEvent(ctx, ev); err != nil {
		return fmt.Errorf("failed to create world event: %w", err)
	}
	return nil
}

// moveTo updates the being's current action and position after acting, and
// writes the day's line to its life log.
func moveTo(b *being.Being, a being.PlannedAction, today world.Date) {
	b.CurrentAction = a.Action
	if a.Latitude != nil {
		b.Current.Latitude = a.Latitude
	}
	if a.Longitude != nil {
		b.Current.Longitude = a.Longitude
	}
	b.Current.Place = a.Place
	b.Current.City = a.City
	b.Current.Country = a.Country

	line := fmt.Sprintf("%s: %s", today.Journal(), a.Action)
	if a.Place != "" {
		line += " at " + a.Place
	}
	b.AppendLife(line)
}
