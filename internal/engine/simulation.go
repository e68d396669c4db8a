// Simulation ties the actor population together and runs it each tick.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/talgya/menger/internal/actor"
	"github.com/talgya/menger/internal/economy"
)

// maxEvents bounds the in-memory event ring.
const maxEvents = 1000

// Simulation holds the complete world state and wires systems together. All
// mutation goes through the mutex: the engine loop, the shell, and the API
// admin endpoints may all drive the same simulation.
type Simulation struct {
	mu sync.Mutex

	Catalog    *economy.Catalog
	Actors     []*actor.Actor // sorted by ID; partner visit order
	ActorIndex map[string]*actor.Actor

	Events   []Event
	LastTick uint64 // Most recent tick processed

	Stats SimStats
}

// Event is a notable occurrence in the world.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"` // "use", "trade", "goal", "admin"
}

// SimStats tracks aggregate statistics since the simulation started.
type SimStats struct {
	Actors        int    `json:"actors"`
	ActiveGoals   int    `json:"active_goals"`
	ItemsHeld     int    `json:"items_held"`
	DirectUses    uint64 `json:"direct_uses"`
	Substitutions uint64 `json:"substitutions"`
	Trades        uint64 `json:"trades"`
	BidsRejected  uint64 `json:"bids_rejected"`
	NoDeals       uint64 `json:"no_deals"`
}

// NewSimulation creates a Simulation from a goods catalog and an actor
// population. Actors are kept sorted by ID so partner visit order is fixed
// and deterministic.
func NewSimulation(catalog *economy.Catalog, actors []*actor.Actor) *Simulation {
	sorted := append([]*actor.Actor(nil), actors...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	index := make(map[string]*actor.Actor, len(sorted))
	for _, a := range sorted {
		index[a.ID] = a
	}

	sim := &Simulation{
		Catalog:    catalog,
		Actors:     sorted,
		ActorIndex: index,
	}
	sim.updateStats()
	return sim
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastTick
}

// Step advances the world by one tick: recurrence countdowns first, then each
// actor's decision procedure in ID order. Returns the new tick number.
func (s *Simulation) Step() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step()
}

// StepN advances the world by n ticks under one lock acquisition.
func (s *Simulation) StepN(n int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.step()
	}
	return s.LastTick
}

func (s *Simulation) step() uint64 {
	s.LastTick++
	tick := s.LastTick

	// Recurrence countdowns advance before anyone acts, so a goal whose
	// countdown expires this tick is pursuable this tick.
	for _, a := range s.Actors {
		for _, gt := range a.Registry.TickRecurrence() {
			s.record(tick, "goal", fmt.Sprintf("%s: goal %q recurred", a.Name, gt))
		}
	}

	for _, a := range s.Actors {
		s.stepActor(tick, a)
	}

	s.updateStats()
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
	return tick
}

// StepActor advances the world clock one tick but runs only the named
// actor's recurrence countdowns and decision procedure. An inspection tool
// for isolating one actor's behavior; Step drives everyone.
func (s *Simulation) StepActor(actorID string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.ActorIndex[actorID]
	if !ok {
		return 0, fmt.Errorf("step actor: unknown actor %q", actorID)
	}

	s.LastTick++
	tick := s.LastTick
	for _, gt := range a.Registry.TickRecurrence() {
		s.record(tick, "goal", fmt.Sprintf("%s: goal %q recurred", a.Name, gt))
	}
	s.stepActor(tick, a)

	s.updateStats()
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
	return tick, nil
}

// record appends an event inside the lock.
func (s *Simulation) record(tick uint64, category, desc string) {
	s.Events = append(s.Events, Event{Tick: tick, Description: desc, Category: category})
}

func (s *Simulation) updateStats() {
	activeGoals := 0
	itemsHeld := 0
	for _, a := range s.Actors {
		activeGoals += len(a.Registry.Active())
		itemsHeld += a.Inventory.Len()
	}
	s.Stats.Actors = len(s.Actors)
	s.Stats.ActiveGoals = activeGoals
	s.Stats.ItemsHeld = itemsHeld
}

// Actor returns the actor with the given ID, or nil.
func (s *Simulation) Actor(id string) *actor.Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ActorIndex[id]
}

// Snapshots exports every actor's full state, in ID order.
func (s *Simulation) Snapshots() []actor.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]actor.Snapshot, 0, len(s.Actors))
	for _, a := range s.Actors {
		out = append(out, a.Snapshot())
	}
	return out
}

// ActorSnapshot exports one actor's full state.
func (s *Simulation) ActorSnapshot(id string) (actor.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.ActorIndex[id]
	if !ok {
		return actor.Snapshot{}, false
	}
	return a.Snapshot(), true
}

// RecentEvents returns up to n most recent events, newest last.
func (s *Simulation) RecentEvents(n int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := 0
	if len(s.Events) > n {
		start = len(s.Events) - n
	}
	out := make([]Event, len(s.Events)-start)
	copy(out, s.Events[start:])
	return out
}

// StatsSnapshot returns the current aggregate statistics.
func (s *Simulation) StatsSnapshot() SimStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Stats
}

// GiveItem mints a fresh instance of the item type and hands it to the actor.
// Administrative mutation, used by the shell and the API.
func (s *Simulation) GiveItem(actorID string, t actor.ItemType) (actor.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.ActorIndex[actorID]
	if !ok {
		return actor.Item{}, fmt.Errorf("give item: unknown actor %q", actorID)
	}
	if !s.Catalog.Knows(t) {
		return actor.Item{}, fmt.Errorf("give item: unknown item type %q", t)
	}
	item := actor.NewItem(t)
	a.Give(item)
	s.record(s.LastTick, "admin", fmt.Sprintf("%s received %s (%s)", a.Name, t, shortID(item.ID.String())))
	return item, nil
}

// RegisterGoal registers (or re-arms) a goal on the actor. The goal type must
// already be ranked in the actor's hierarchy.
func (s *Simulation) RegisterGoal(actorID string, gt actor.GoalType, units int, recurrence uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.ActorIndex[actorID]
	if !ok {
		return fmt.Errorf("register goal: unknown actor %q", actorID)
	}
	if err := a.Registry.Register(gt, units, recurrence); err != nil {
		return err
	}
	s.record(s.LastTick, "admin", fmt.Sprintf("%s registered goal %q (%d units)", a.Name, gt, units))
	return nil
}

// RemoveGoal deregisters a goal from the actor, triggering the preference
// heap rebuilds. Returns false if the actor had no such goal.
func (s *Simulation) RemoveGoal(actorID string, gt actor.GoalType) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.ActorIndex[actorID]
	if !ok {
		return false, fmt.Errorf("remove goal: unknown actor %q", actorID)
	}
	removed := a.Registry.Remove(gt)
	if removed {
		s.record(s.LastTick, "admin", fmt.Sprintf("%s removed goal %q", a.Name, gt))
	}
	return removed, nil
}

// CompareItems reports the actor's current ordering of two item types:
// negative when a is more valuable, positive when less, zero when equal.
func (s *Simulation) CompareItems(actorID string, a, b actor.ItemType) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ac, ok := s.ActorIndex[actorID]
	if !ok {
		return 0, fmt.Errorf("compare items: unknown actor %q", actorID)
	}
	return ac.CompareItems(a, b), nil
}

// LogStats writes a one-line summary at info level.
func (s *Simulation) LogStats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	slog.Info("simulation stats",
		"tick", s.LastTick,
		"actors", s.Stats.Actors,
		"active_goals", s.Stats.ActiveGoals,
		"items_held", s.Stats.ItemsHeld,
		"direct_uses", s.Stats.DirectUses,
		"substitutions", s.Stats.Substitutions,
		"trades", s.Stats.Trades,
		"no_deals", s.Stats.NoDeals,
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
