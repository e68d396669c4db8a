// Per-tick actor decision procedure: inventory first, then multi-party
// bounded bidding. An actor performs at most one consequential action per
// tick — one consumption, one partner visit, or one bid — so negotiations
// stretch over many ticks and every actor's valuations can shift between
// bids.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/menger/internal/actor"
)

func (s *Simulation) stepActor(tick uint64, a *actor.Actor) {
	var goal actor.GoalType
	if a.State.Phase == actor.PhaseSelectGoal {
		g, ok := a.SelectGoal()
		if !ok {
			a.State.Reset()
			a.Outcome = actor.TickOutcome{Tick: tick, Kind: actor.OutcomeIdle}
			return
		}
		goal = g
	} else {
		// Negotiations are single-minded: the stored goal is pursued to
		// resolution even when a higher-ranked goal reactivates mid-pursuit.
		// Reactivation still matters, because it revalues the actor's items;
		// the opportunity-cost stop in placeBid is what ends a pursuit that
		// revaluation has made senseless.
		goal = a.State.Goal
		if g := a.Registry.Lookup(goal); g == nil || !g.Active() {
			// The pursued goal was satisfied or removed out from under us.
			a.State.Reset()
			g2, ok := a.SelectGoal()
			if !ok {
				a.Outcome = actor.TickOutcome{Tick: tick, Kind: actor.OutcomeIdle}
				return
			}
			goal = g2
		} else if _, ok := a.DirectUseItem(goal); ok {
			// An item directly serving the goal arrived mid-negotiation, as
			// the give side of some other actor's trade. Consuming it beats
			// any bid we were about to make.
			a.State.Reset()
		}
	}

	switch a.State.Phase {
	case actor.PhaseSelectGoal:
		s.tryInventory(tick, a, goal)
	case actor.PhaseSeekPartner:
		s.visitNextPartner(tick, a, goal)
	case actor.PhaseBidding:
		s.placeBid(tick, a, goal)
	}
}

// tryInventory attempts to satisfy the goal from held items: an item assigned
// to the goal first, then the cheapest capable substitute. Only when neither
// exists does the actor turn to trade.
func (s *Simulation) tryInventory(tick uint64, a *actor.Actor, goal actor.GoalType) {
	if item, ok := a.DirectUseItem(goal); ok {
		if _, err := a.UseItemForGoal(item.ID, goal); err != nil {
			slog.Warn("direct use failed", "actor", a.ID, "item", item.ID, "err", err)
			return
		}
		s.Stats.DirectUses++
		a.Outcome = actor.TickOutcome{
			Tick: tick, Kind: actor.OutcomeDirectUse,
			Goal: goal, Item: item.ID.String(), ItemT: item.Type,
		}
		s.record(tick, "use", fmt.Sprintf("%s consumed %s for %q", a.Name, item.Type, goal))
		return
	}

	if item, ok := a.SubstituteItem(goal); ok {
		forgone, _ := a.TopGoal(item.Type)
		if _, err := a.UseItemForGoal(item.ID, goal); err != nil {
			slog.Warn("substitution failed", "actor", a.ID, "item", item.ID, "err", err)
			return
		}
		s.Stats.Substitutions++
		a.Outcome = actor.TickOutcome{
			Tick: tick, Kind: actor.OutcomeSubstitute,
			Goal: goal, Item: item.ID.String(), ItemT: item.Type,
			Detail: fmt.Sprintf("forgoing %q", forgone),
		}
		s.record(tick, "use", fmt.Sprintf("%s consumed %s for %q (substitute)", a.Name, item.Type, goal))
		return
	}

	// Nothing held can serve the goal. Go to market; visiting the first
	// partner is this tick's action.
	a.State.Goal = goal
	a.State.Phase = actor.PhaseSeekPartner
	a.State.PartnerCursor = -1
	a.State.BidCursor = 0
	s.visitNextPartner(tick, a, goal)
}

// visitNextPartner advances the partner cursor through the fixed ID ordering
// to the next peer holding something capable of serving the goal, and opens
// bidding against it. When the ordering is exhausted the pursuit ends in a
// no-deal.
func (s *Simulation) visitNextPartner(tick uint64, a *actor.Actor, goal actor.GoalType) {
	for i := a.State.PartnerCursor + 1; i < len(s.Actors); i++ {
		peer := s.Actors[i]
		if peer.ID == a.ID {
			continue
		}
		a.State.PartnerCursor = i
		if !peer.CanSupply(goal) {
			continue
		}
		a.State.PartnerID = peer.ID
		a.State.BidCursor = 0
		a.State.Phase = actor.PhaseBidding
		s.placeBid(tick, a, goal)
		return
	}

	s.Stats.NoDeals++
	a.Outcome = actor.TickOutcome{
		Tick: tick, Kind: actor.OutcomeNoDeal, Goal: goal,
		Detail: "no deal with any partner",
	}
	s.record(tick, "trade", fmt.Sprintf("%s found no trade for %q", a.Name, goal))
	a.State.Reset()
}

// placeBid makes one bid against the current partner: offer the next item in
// the actor's cheapest-first ordering. Bidding with a partner stops the
// moment the next offer would be worth as much as the goal's own
// satisfaction — trading it away could never come out ahead — and the actor
// moves on to the next partner, whose tastes may favor the cheaper rungs.
func (s *Simulation) placeBid(tick uint64, a *actor.Actor, goal actor.GoalType) {
	peer := s.ActorIndex[a.State.PartnerID]
	if peer == nil {
		a.State.Phase = actor.PhaseSeekPartner
		s.visitNextPartner(tick, a, goal)
		return
	}

	offers := a.ItemsCheapestFirst()
	if a.State.BidCursor >= len(offers) {
		// Nothing left to offer this partner; move on next tick.
		a.Outcome = actor.TickOutcome{
			Tick: tick, Kind: actor.OutcomeBidRejected,
			Goal: goal, Partner: peer.ID,
			Detail: "offers exhausted",
		}
		a.State.Phase = actor.PhaseSeekPartner
		return
	}

	offered := offers[a.State.BidCursor]
	goalRank, err := a.Hierarchy.RankOf(goal)
	if err != nil {
		slog.Warn("bidding on unranked goal", "actor", a.ID, "goal", goal, "err", err)
		a.State.Reset()
		return
	}
	if v, err := a.ValueOf(offered.Type); err == nil && v <= goalRank {
		// Offers ascend in value, so this and every later rung is worth at
		// least the goal's own satisfaction. No bid with this partner can
		// come out ahead; move on.
		a.Outcome = actor.TickOutcome{
			Tick: tick, Kind: actor.OutcomeNoDeal,
			Goal: goal, Item: offered.ID.String(), ItemT: offered.Type,
			Partner: peer.ID,
			Detail:  "remaining items worth more than the goal",
		}
		s.record(tick, "trade", fmt.Sprintf("%s stopped bidding %s for %q: remaining items too valuable", a.Name, peer.Name, goal))
		a.State.Phase = actor.PhaseSeekPartner
		return
	}

	give, accepted := peer.ConsiderBid(offered, goal)
	if !accepted {
		s.Stats.BidsRejected++
		a.State.BidCursor++
		a.Outcome = actor.TickOutcome{
			Tick: tick, Kind: actor.OutcomeBidRejected,
			Goal: goal, Item: offered.ID.String(), ItemT: offered.Type,
			Partner: peer.ID,
		}
		return
	}

	// Atomic swap: both items change hands or neither does.
	if _, ok := a.Inventory.Remove(offered.ID); !ok {
		slog.Warn("offered item vanished before swap", "actor", a.ID, "item", offered.ID)
		a.State.Reset()
		return
	}
	taken, ok := peer.Inventory.Remove(give.ID)
	if !ok {
		// Peer accepted against an item it no longer holds; undo.
		a.Give(offered)
		slog.Warn("accepted item vanished before swap", "peer", peer.ID, "item", give.ID)
		a.State.Reset()
		return
	}
	peer.Give(offered)
	a.Give(taken)

	// The received item serves the goal by the terms of the bid; consume it.
	if _, err := a.UseItemForGoal(taken.ID, goal); err != nil {
		slog.Warn("consuming traded item failed", "actor", a.ID, "item", taken.ID, "err", err)
	}

	s.Stats.Trades++
	a.Outcome = actor.TickOutcome{
		Tick: tick, Kind: actor.OutcomeTradeDone,
		Goal: goal, Item: offered.ID.String(), ItemT: offered.Type,
		Gained: taken.ID.String(), GainedT: taken.Type,
		Partner: peer.ID,
	}
	s.record(tick, "trade", fmt.Sprintf("%s traded %s to %s for %s, consuming it for %q",
		a.Name, offered.Type, peer.Name, taken.Type, goal))
	a.State.Reset()
}
