package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/menger/internal/actor"
	"github.com/talgya/menger/internal/economy"
	"github.com/talgya/menger/internal/scenario"
)

func buildActor(t *testing.T, id, name string, ranking []actor.GoalType, goals []actor.GoalSpec, serves map[actor.ItemType][]actor.GoalType) *actor.Actor {
	t.Helper()
	a, err := actor.New(id, name, ranking, goals, serves)
	require.NoError(t, err)
	return a
}

func TestStepDirectUsePrecedence(t *testing.T) {
	serves := map[actor.ItemType][]actor.GoalType{
		"bread": {"food", "leisure"},
		"plank": {"shelter", "leisure"},
	}
	a := buildActor(t, "a1", "Alice",
		[]actor.GoalType{"food", "shelter", "leisure"},
		[]actor.GoalSpec{{Type: "food", Units: 1}, {Type: "leisure", Units: 1}},
		serves)
	a.Endow("bread", 1)
	a.Endow("plank", 1)

	sim := NewSimulation(economy.DefaultCatalog(), []*actor.Actor{a})
	sim.Step()

	// One action per tick: the bread went to food, the plank is untouched.
	assert.Equal(t, actor.OutcomeDirectUse, a.Outcome.Kind)
	assert.Equal(t, actor.ItemType("bread"), a.Outcome.ItemT)
	assert.Equal(t, 1, a.Inventory.Len())
	assert.Nil(t, a.Registry.Lookup("food"), "one-shot food goal satisfied and gone")
}

func TestStepSubstitutionAtOpportunityCost(t *testing.T) {
	serves := map[actor.ItemType][]actor.GoalType{
		"bread":   {"food", "leisure"},
		"trinket": {"leisure"},
	}
	a := buildActor(t, "a1", "Alice",
		[]actor.GoalType{"food", "leisure"},
		[]actor.GoalSpec{
			{Type: "food", Units: 1, RecurrenceTicks: 5},
			{Type: "leisure", Units: 2},
		},
		serves)
	a.Endow("bread", 2)
	a.Endow("trinket", 1)

	sim := NewSimulation(economy.DefaultCatalog(), []*actor.Actor{a})

	// Tick 1: food via bread, direct. Food parks with its countdown armed,
	// but the remaining bread stays assigned to it.
	sim.Step()
	require.Equal(t, actor.OutcomeDirectUse, a.Outcome.Kind)
	assert.Equal(t, actor.ItemType("bread"), a.Outcome.ItemT)

	// Tick 2: leisure. The trinket is assigned to leisure and goes first.
	sim.Step()
	require.Equal(t, actor.OutcomeDirectUse, a.Outcome.Kind)
	assert.Equal(t, actor.ItemType("trinket"), a.Outcome.ItemT)

	// Tick 3: leisure again, and only bread remains. Consuming it forgoes
	// the dormant food goal: substitution at opportunity cost.
	sim.Step()
	assert.Equal(t, actor.OutcomeSubstitute, a.Outcome.Kind)
	assert.Equal(t, actor.ItemType("bread"), a.Outcome.ItemT)
	assert.Equal(t, uint64(1), sim.StatsSnapshot().Substitutions)
}

func TestStepSingleActor(t *testing.T) {
	sc := scenario.Default()
	actors, err := sc.Build()
	require.NoError(t, err)
	sim := NewSimulation(sc.Catalog, actors)

	tick, err := sim.StepActor("actor-baker")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tick)

	assert.Equal(t, actor.OutcomeDirectUse, sim.Actor("actor-baker").Outcome.Kind)
	assert.Zero(t, sim.Actor("actor-carpenter").Outcome.Tick, "only the named actor acted")

	_, err = sim.StepActor("nobody")
	assert.Error(t, err)
}

func TestDefaultScenarioTrades(t *testing.T) {
	sc := scenario.Default()
	actors, err := sc.Build()
	require.NoError(t, err)
	sim := NewSimulation(sc.Catalog, actors)

	initialItems := 0
	for _, a := range sim.Actors {
		initialItems += a.Inventory.Len()
	}

	sim.StepN(40)

	stats := sim.StatsSnapshot()
	assert.Greater(t, stats.DirectUses, uint64(0))
	assert.Greater(t, stats.Trades, uint64(0), "complementary surpluses should trade")

	// Conservation: every consumption (direct, substitute, or post-trade)
	// destroys exactly one item; swaps themselves destroy nothing.
	consumed := stats.DirectUses + stats.Substitutions + stats.Trades
	held := 0
	for _, a := range sim.Actors {
		held += a.Inventory.Len()
	}
	assert.Equal(t, initialItems-int(consumed), held)
}

func TestBiddingEscalatesCheapestFirst(t *testing.T) {
	// Alice wants shelter but holds only leisure-grade items; Bob holds a
	// plank he values below Alice's trinket-for-his-leisure offer.
	aliceServes := map[actor.ItemType][]actor.GoalType{
		"trinket": {"leisure"},
		"plank":   {"shelter", "leisure"},
	}
	bobServes := map[actor.ItemType][]actor.GoalType{
		"trinket": {"leisure"},
		"plank":   {"shelter", "leisure"},
	}
	alice := buildActor(t, "a-alice", "Alice",
		[]actor.GoalType{"shelter", "leisure"},
		[]actor.GoalSpec{{Type: "shelter", Units: 1}, {Type: "leisure", Units: 2}},
		aliceServes)
	alice.Endow("trinket", 1)

	bob := buildActor(t, "b-bob", "Bob",
		[]actor.GoalType{"leisure", "shelter"},
		[]actor.GoalSpec{{Type: "leisure", Units: 2}},
		bobServes)
	bob.Endow("plank", 1)

	sim := NewSimulation(economy.DefaultCatalog(), []*actor.Actor{alice, bob})

	// Tick 1: Alice cannot serve shelter from inventory, visits Bob, and
	// offers her trinket. Bob's cheapest shelter-capable item is the plank
	// (best use leisure, same as the trinket he is offered), so he accepts.
	sim.Step()

	assert.Equal(t, actor.OutcomeTradeDone, alice.Outcome.Kind)
	assert.Equal(t, actor.ItemType("trinket"), alice.Outcome.ItemT)
	assert.Equal(t, actor.ItemType("plank"), alice.Outcome.GainedT)
	assert.Equal(t, "b-bob", alice.Outcome.Partner)

	// The received plank was consumed for shelter on the spot.
	assert.Equal(t, 0, alice.Inventory.Len())
	assert.Nil(t, alice.Registry.Lookup("shelter"))

	// Bob now holds the trinket.
	assert.Equal(t, 1, bob.Inventory.CountByType()["trinket"])
}

func TestOpportunityCostStopsBidding(t *testing.T) {
	// Alice pursues leisure while her bread is temporarily worthless (food
	// is satisfied and waiting to recur). When food reactivates mid-pursuit
	// the bread revalues above leisure, and bidding must stop rather than
	// trade it away.
	aliceServes := map[actor.ItemType][]actor.GoalType{
		"bread":   {"food"},
		"trinket": {"leisure"},
	}
	bobServes := map[actor.ItemType][]actor.GoalType{
		"trinket": {"status", "leisure"},
	}
	alice := buildActor(t, "a-alice", "Alice",
		[]actor.GoalType{"food", "leisure"},
		[]actor.GoalSpec{
			{Type: "food", Units: 1, RecurrenceTicks: 2},
			{Type: "leisure", Units: 1},
		},
		aliceServes)
	alice.Endow("bread", 3)

	// Bob hoards trinkets for his own long-running status goal, so he
	// rejects worthless bread but remains a viable leisure supplier.
	bob := buildActor(t, "b-bob", "Bob",
		[]actor.GoalType{"status", "leisure"},
		[]actor.GoalSpec{{Type: "status", Units: 10}},
		bobServes)
	bob.Endow("trinket", 6)

	sim := NewSimulation(economy.DefaultCatalog(), []*actor.Actor{alice, bob})

	// Tick 1: Alice eats a bread; food satisfied, countdown = 2.
	sim.Step()
	require.Equal(t, actor.OutcomeDirectUse, alice.Outcome.Kind)

	// Tick 2: leisure is the goal; bread is worthless, so she offers one.
	// Bob values his trinkets (status) far above worthless bread: rejected.
	sim.Step()
	require.Equal(t, actor.OutcomeBidRejected, alice.Outcome.Kind)

	// Tick 3: food reactivated this tick, revaluing bread to rank 0. The
	// next offer in the ladder is now worth more than leisure: bidding with
	// Bob stops and no bread changes hands.
	sim.Step()
	assert.Equal(t, actor.OutcomeNoDeal, alice.Outcome.Kind)
	assert.Equal(t, "b-bob", alice.Outcome.Partner)
	assert.Equal(t, 2, alice.Inventory.Len(), "no bread was traded away")
	assert.Equal(t, actor.PhaseSeekPartner, alice.State.Phase)

	// Tick 4: Bob was the last partner; the pursuit ends for real.
	sim.Step()
	assert.Equal(t, actor.OutcomeNoDeal, alice.Outcome.Kind)
	assert.Equal(t, actor.PhaseSelectGoal, alice.State.Phase)

	// Tick 5: back to goal selection; food wins and a bread is eaten.
	sim.Step()
	assert.Equal(t, actor.OutcomeDirectUse, alice.Outcome.Kind)
	assert.Equal(t, actor.GoalType("food"), alice.Outcome.Goal)
}

func TestNoPartnerCanSupply(t *testing.T) {
	serves := map[actor.ItemType][]actor.GoalType{"bread": {"food"}}
	alice := buildActor(t, "a-alice", "Alice",
		[]actor.GoalType{"food"},
		[]actor.GoalSpec{{Type: "food", Units: 1}},
		serves)
	bob := buildActor(t, "b-bob", "Bob",
		[]actor.GoalType{"food"},
		[]actor.GoalSpec{{Type: "food", Units: 1}},
		serves)

	sim := NewSimulation(economy.DefaultCatalog(), []*actor.Actor{alice, bob})
	sim.Step()

	assert.Equal(t, actor.OutcomeNoDeal, alice.Outcome.Kind)
	assert.Equal(t, actor.PhaseSelectGoal, alice.State.Phase)
}

func TestAdminMutations(t *testing.T) {
	sc := scenario.Default()
	actors, err := sc.Build()
	require.NoError(t, err)
	sim := NewSimulation(sc.Catalog, actors)

	_, err = sim.GiveItem("nobody", "bread")
	assert.Error(t, err)
	_, err = sim.GiveItem("actor-baker", "gold")
	assert.Error(t, err, "items must come from the catalog")

	item, err := sim.GiveItem("actor-baker", "fish")
	require.NoError(t, err)
	assert.Equal(t, actor.ItemType("fish"), item.Type)

	assert.Error(t, sim.RegisterGoal("actor-baker", "fame", 1, 0), "goal must be ranked")
	require.NoError(t, sim.RegisterGoal("actor-baker", "leisure", 2, 0))

	removed, err := sim.RemoveGoal("actor-baker", "leisure")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestEventsRingBounded(t *testing.T) {
	sc := scenario.Default()
	actors, err := sc.Build()
	require.NoError(t, err)
	sim := NewSimulation(sc.Catalog, actors)

	sim.StepN(2000)
	assert.LessOrEqual(t, len(sim.RecentEvents(maxEvents+1)), maxEvents)
}
