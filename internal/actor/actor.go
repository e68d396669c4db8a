package actor

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Phase is where an actor's per-tick decision procedure currently stands.
// The phase persists across ticks: a negotiation is spread over many ticks,
// one partner visit or one bid per tick.
type Phase uint8

const (
	PhaseSelectGoal  Phase = iota // Pick a goal and try to satisfy it from inventory
	PhaseSeekPartner              // Visit the next trade partner
	PhaseBidding                  // Escalate bids against the current partner
)

func (p Phase) String() string {
	switch p {
	case PhaseSelectGoal:
		return "select-goal"
	case PhaseSeekPartner:
		return "seek-partner"
	case PhaseBidding:
		return "bidding"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// State carries the negotiation cursors between ticks.
type State struct {
	Phase Phase `json:"phase"`

	// Goal is the goal type the in-progress negotiation is pursuing. The
	// pursuit is single-minded: it runs to resolution unless the goal itself
	// stops being active.
	Goal GoalType `json:"goal,omitempty"`

	// PartnerCursor indexes into the fixed partner ordering: the last
	// partner visited. -1 means none yet.
	PartnerCursor int `json:"partner_cursor"`

	// PartnerID is the peer currently being bid against.
	PartnerID string `json:"partner_id,omitempty"`

	// BidCursor is the next position in the actor's own cheapest-first
	// offer ordering.
	BidCursor int `json:"bid_cursor"`
}

// Reset returns the state machine to goal selection.
func (s *State) Reset() {
	*s = State{Phase: PhaseSelectGoal, PartnerCursor: -1}
}

// OutcomeKind classifies what an actor did in one tick.
type OutcomeKind uint8

const (
	OutcomeIdle        OutcomeKind = iota // No active goal this tick
	OutcomeDirectUse                      // Consumed an item assigned to the goal itself
	OutcomeSubstitute                     // Consumed a capable item assigned elsewhere, at opportunity cost
	OutcomeSeekTrade                      // Decided to trade / visited a partner
	OutcomeBidRejected                    // Made a bid that the partner declined
	OutcomeTradeDone                      // Completed an exchange and consumed the proceeds
	OutcomeNoDeal                         // Exhausted all partners without agreement
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeIdle:
		return "idle"
	case OutcomeDirectUse:
		return "direct-use"
	case OutcomeSubstitute:
		return "substitute"
	case OutcomeSeekTrade:
		return "seek-trade"
	case OutcomeBidRejected:
		return "bid-rejected"
	case OutcomeTradeDone:
		return "trade-done"
	case OutcomeNoDeal:
		return "no-deal"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(k))
	}
}

// TickOutcome records what happened to an actor in its most recent tick, for
// inspection by the shell and API.
type TickOutcome struct {
	Tick    uint64      `json:"tick"`
	Kind    OutcomeKind `json:"kind"`
	Goal    GoalType    `json:"goal,omitempty"`
	Item    string      `json:"item,omitempty"`      // consumed or offered instance
	ItemT   ItemType    `json:"item_type,omitempty"`
	Gained  string      `json:"gained,omitempty"`    // instance received in a trade
	GainedT ItemType    `json:"gained_type,omitempty"`
	Partner string      `json:"partner,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}

// Actor is one valuing, satisfying, trading economic unit. It owns exactly
// one hierarchy, one registry, one preference structure, and one inventory;
// peers interact with it only through the negotiation contract (CanSupply /
// ConsiderBid) and the trade engine's atomic swaps.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Hierarchy *Hierarchy      `json:"-"`
	Registry  *Registry       `json:"-"`
	Prefs     *PreferenceList `json:"-"`
	Inventory *Inventory      `json:"-"`

	State   State       `json:"state"`
	Outcome TickOutcome `json:"outcome"`
}

// New constructs an actor from a ranking (most valued goal type first), the
// goals to register, and the satisfactions table mapping item types to the
// goal types they can serve. Every goal type referenced anywhere must appear
// in the ranking.
func New(id, name string, ranking []GoalType, goals []GoalSpec, satisfactions map[ItemType][]GoalType) (*Actor, error) {
	hier, err := NewHierarchy(ranking...)
	if err != nil {
		return nil, fmt.Errorf("actor %s: %w", id, err)
	}
	prefs, err := newPreferenceList(hier, satisfactions)
	if err != nil {
		return nil, fmt.Errorf("actor %s: %w", id, err)
	}
	reg := newRegistry(hier, prefs)
	for _, spec := range goals {
		if err := reg.Register(spec.Type, spec.Units, spec.RecurrenceTicks); err != nil {
			return nil, fmt.Errorf("actor %s: %w", id, err)
		}
	}

	a := &Actor{
		ID:        id,
		Name:      name,
		Hierarchy: hier,
		Registry:  reg,
		Prefs:     prefs,
		Inventory: NewInventory(),
	}
	a.State.Reset()
	return a, nil
}

// Give adds an item to the actor's inventory.
func (a *Actor) Give(item Item) {
	a.Inventory.Add(item)
}

// Endow mints and adds count fresh instances of an item type.
func (a *Actor) Endow(t ItemType, count int) {
	for i := 0; i < count; i++ {
		a.Inventory.Add(NewItem(t))
	}
}

// SelectGoal returns the highest-ranked goal type currently demanding units.
func (a *Actor) SelectGoal() (GoalType, bool) {
	active := a.Registry.Active()
	if len(active) == 0 {
		return "", false
	}
	return active[0], true
}

// BestUse returns the item type's current highest-valued satisfiable goal.
func (a *Actor) BestUse(t ItemType) (GoalType, error) {
	return a.Prefs.BestUse(t)
}

// ValueOf returns the rank of the item type's best use (lower = more valuable).
func (a *Actor) ValueOf(t ItemType) (int, error) {
	return a.Prefs.ValueOf(t)
}

// TopGoal returns the item type's standing assignment: the highest-ranked
// registered goal it serves, whether or not that goal currently demands units.
func (a *Actor) TopGoal(t ItemType) (GoalType, error) {
	return a.Prefs.TopGoal(t)
}

// CompareItems orders two item types by this actor's valuation: negative when
// a is more valuable than b, positive when less. An item with no satisfiable
// goal is worth less than any item with one.
func (a *Actor) CompareItems(x, y ItemType) int {
	vx, errx := a.ValueOf(x)
	vy, erry := a.ValueOf(y)
	switch {
	case errx != nil && erry != nil:
		return 0
	case errx != nil:
		return 1
	case erry != nil:
		return -1
	default:
		return vx - vy
	}
}

// UseItemForGoal consumes the item instance to satisfy the goal: the item is
// destroyed and the goal's remaining units decrement by one.
func (a *Actor) UseItemForGoal(id uuid.UUID, gt GoalType) (Item, error) {
	item, ok := a.Inventory.Remove(id)
	if !ok {
		return Item{}, fmt.Errorf("actor %s: item %s not in inventory", a.ID, id)
	}
	a.Registry.Decrement(gt)
	return item, nil
}

// DirectUseItem finds an item whose standing assignment is exactly the
// selected goal. Consuming such an item forgoes nothing better: no other
// registered goal it serves outranks this one.
func (a *Actor) DirectUseItem(gt GoalType) (Item, bool) {
	for _, it := range a.Inventory.Items() {
		if top, err := a.TopGoal(it.Type); err == nil && top == gt {
			return it, true
		}
	}
	return Item{}, false
}

// SubstituteItem finds the cheapest item capable of serving the goal whose
// standing assignment is some other, better-ranked goal. Consuming it
// sacrifices the least-valued forgone alternative available.
func (a *Actor) SubstituteItem(gt GoalType) (Item, bool) {
	var best Item
	bestRank := -1
	for _, it := range a.Inventory.Items() {
		if !a.Prefs.CanServe(it.Type, gt) {
			continue
		}
		top, err := a.TopGoal(it.Type)
		if err != nil || top == gt {
			continue
		}
		r, err := a.Hierarchy.RankOf(top)
		if err != nil {
			continue
		}
		// Numerically highest rank = least valuable alternative forgone.
		if r > bestRank {
			best, bestRank = it, r
		}
	}
	return best, bestRank >= 0
}

// ItemsCheapestFirst returns the inventory ordered for bidding: least-valued
// instances first, items with no current use cheapest of all. Ties break on
// instance ID so the ordering is deterministic.
func (a *Actor) ItemsCheapestFirst() []Item {
	items := a.Inventory.Items()
	sort.SliceStable(items, func(i, j int) bool {
		c := a.CompareItems(items[i].Type, items[j].Type)
		if c != 0 {
			return c > 0
		}
		return items[i].ID.String() < items[j].ID.String()
	})
	return items
}

// CanSupply reports whether the actor holds any item capable of serving the
// goal type. Part of the negotiation contract: partners probe this before
// opening a bid sequence.
func (a *Actor) CanSupply(gt GoalType) bool {
	for _, it := range a.Inventory.Items() {
		if a.Prefs.CanServe(it.Type, gt) {
			return true
		}
	}
	return false
}

// ConsiderBid is the peer side of a bid. The initiator offers one item and
// names the goal type it wants served. The peer selects its least-valued
// item capable of serving that goal — the cheapest thing it could part with —
// and accepts only when the offered item is worth at least as much to the
// peer as what it would surrender. Nothing changes hands here; the trade
// engine performs the swap on acceptance.
func (a *Actor) ConsiderBid(offered Item, want GoalType) (give Item, ok bool) {
	found := false
	for _, it := range a.Inventory.Items() {
		if !a.Prefs.CanServe(it.Type, want) {
			continue
		}
		if !found || a.CompareItems(it.Type, give.Type) > 0 {
			give, found = it, true
		}
	}
	if !found {
		return Item{}, false
	}
	if a.CompareItems(offered.Type, give.Type) > 0 {
		// The offer is worth less to us than what we'd give up.
		return Item{}, false
	}
	return give, true
}

// Snapshot captures the actor's complete state for persistence and display.
type Snapshot struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Hierarchy     []GoalType             `json:"hierarchy"`
	Goals         []Goal                 `json:"goals"`
	Satisfactions map[ItemType][]GoalType `json:"satisfactions"`
	Items         []Item                 `json:"items"`
	State         State                  `json:"state"`
	Outcome       TickOutcome            `json:"outcome"`
}

// Snapshot exports the actor's full state.
func (a *Actor) Snapshot() Snapshot {
	return Snapshot{
		ID:            a.ID,
		Name:          a.Name,
		Hierarchy:     a.Hierarchy.Order(),
		Goals:         a.Registry.Goals(),
		Satisfactions: a.Prefs.Satisfactions(),
		Items:         a.Inventory.Items(),
		State:         a.State,
		Outcome:       a.Outcome,
	}
}

// FromSnapshot reconstructs an actor, preserving exact goal satisfaction
// state (remaining units, countdowns), inventory instances, and negotiation
// cursors.
func FromSnapshot(snap Snapshot) (*Actor, error) {
	hier, err := NewHierarchy(snap.Hierarchy...)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", snap.ID, err)
	}
	prefs, err := newPreferenceList(hier, snap.Satisfactions)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", snap.ID, err)
	}
	reg := newRegistry(hier, prefs)
	for _, g := range snap.Goals {
		if !hier.Ranked(g.Type) {
			return nil, fmt.Errorf("restore %s: goal %q: %w", snap.ID, g.Type, ErrUnknownGoal)
		}
		goal := g
		reg.goals[g.Type] = &goal
		prefs.addGoal(g.Type)
	}

	a := &Actor{
		ID:        snap.ID,
		Name:      snap.Name,
		Hierarchy: hier,
		Registry:  reg,
		Prefs:     prefs,
		Inventory: NewInventory(),
		State:     snap.State,
		Outcome:   snap.Outcome,
	}
	for _, it := range snap.Items {
		a.Inventory.Add(it)
	}
	if a.State.Phase == PhaseSelectGoal && a.State.PartnerCursor == 0 {
		a.State.Reset()
	}
	return a, nil
}
