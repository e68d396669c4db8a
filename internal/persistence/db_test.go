package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/menger/internal/actor"
	"github.com/talgya/menger/internal/engine"
	"github.com/talgya/menger/internal/scenario"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testSnapshot(t *testing.T, id string) actor.Snapshot {
	t.Helper()
	a, err := actor.New(id, "Actor "+id,
		[]actor.GoalType{"food", "leisure"},
		[]actor.GoalSpec{{Type: "food", Units: 2, RecurrenceTicks: 5}},
		map[actor.ItemType][]actor.GoalType{"bread": {"food", "leisure"}})
	require.NoError(t, err)
	a.Endow("bread", 3)
	return a.Snapshot()
}

func TestActorRoundTrip(t *testing.T) {
	db := openTestDB(t)

	a, err := actor.New("a1", "Alice",
		[]actor.GoalType{"food", "leisure"},
		[]actor.GoalSpec{{Type: "food", Units: 2, RecurrenceTicks: 5}},
		map[actor.ItemType][]actor.GoalType{"bread": {"food", "leisure"}})
	require.NoError(t, err)
	a.Endow("bread", 3)
	a.Registry.Decrement("food")

	require.NoError(t, db.SaveActors([]actor.Snapshot{a.Snapshot()}))

	loaded, err := db.LoadActors()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, "a1", got.ID)
	assert.Equal(t, a.Inventory.Items(), got.Inventory.Items())

	g := got.Registry.Lookup("food")
	require.NotNil(t, g)
	assert.Equal(t, 1, g.UnitsRemaining)
}

func TestSaveActorsReplaces(t *testing.T) {
	db := openTestDB(t)

	has, err := db.HasActors()
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, db.SaveActors([]actor.Snapshot{
		testSnapshot(t, "a1"),
		testSnapshot(t, "a2"),
	}))
	require.NoError(t, db.SaveActors([]actor.Snapshot{testSnapshot(t, "a3")}))

	loaded, err := db.LoadActors()
	require.NoError(t, err)
	require.Len(t, loaded, 1, "each save is a full replace")
	assert.Equal(t, "a3", loaded[0].ID)

	has, err = db.HasActors()
	require.NoError(t, err)
	assert.True(t, has)
}

func TestSaveEventsReplaces(t *testing.T) {
	db := openTestDB(t)

	events := []engine.Event{
		{Tick: 1, Description: "first", Category: "use"},
		{Tick: 2, Description: "second", Category: "trade"},
	}
	require.NoError(t, db.SaveEvents(events))
	require.NoError(t, db.SaveEvents(events))

	got, err := db.RecentEvents(10)
	require.NoError(t, err)
	require.Len(t, got, 2, "repeated saves must not accumulate rows")
	assert.Equal(t, "second", got[0].Description, "newest first")
}

func TestMetaAndLastTick(t *testing.T) {
	db := openTestDB(t)

	assert.Zero(t, db.LastTick())
	_, err := db.GetMeta("missing")
	assert.Error(t, err)

	require.NoError(t, db.SaveMeta("last_tick", "17"))
	assert.Equal(t, uint64(17), db.LastTick())

	require.NoError(t, db.SaveMeta("last_tick", "18"))
	assert.Equal(t, uint64(18), db.LastTick())
}

func TestSaveSimulation(t *testing.T) {
	sc := scenario.Default()
	actors, err := sc.Build()
	require.NoError(t, err)
	sim := engine.NewSimulation(sc.Catalog, actors)
	sim.StepN(5)

	db := openTestDB(t)
	require.NoError(t, db.SaveSimulation(sim))

	assert.Equal(t, uint64(5), db.LastTick())

	loaded, err := db.LoadActors()
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	events, err := db.RecentEvents(50)
	require.NoError(t, err)
	assert.NotEmpty(t, events)
}
