package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testWiring builds a hierarchy, preference list, and registry wired together
// over the given satisfactions table.
func testWiring(t *testing.T, ranking []GoalType, serves map[ItemType][]GoalType) (*Hierarchy, *PreferenceList, *Registry) {
	t.Helper()
	h, err := NewHierarchy(ranking...)
	require.NoError(t, err)
	p, err := newPreferenceList(h, serves)
	require.NoError(t, err)
	r := newRegistry(h, p)
	return h, p, r
}

func TestRegisterRequiresRankedType(t *testing.T) {
	_, _, reg := testWiring(t,
		[]GoalType{"food"},
		map[ItemType][]GoalType{"bread": {"food"}})

	assert.ErrorIs(t, reg.Register("fame", 1, 0), ErrUnknownGoal)
	assert.Error(t, reg.Register("food", 0, 0), "zero units rejected")
	require.NoError(t, reg.Register("food", 2, 0))
	assert.Equal(t, 1, reg.Len())
}

func TestDecrementOneShotRemoves(t *testing.T) {
	_, prefs, reg := testWiring(t,
		[]GoalType{"food"},
		map[ItemType][]GoalType{"bread": {"food"}})
	require.NoError(t, reg.Register("food", 2, 0))

	reg.Decrement("food")
	require.NotNil(t, reg.Lookup("food"))
	assert.Equal(t, 1, reg.Lookup("food").UnitsRemaining)

	reg.Decrement("food")
	assert.Nil(t, reg.Lookup("food"), "one-shot goal leaves the registry at zero")

	_, err := prefs.BestUse("bread")
	assert.ErrorIs(t, err, ErrNoSatisfiableGoal)
}

func TestDecrementRecurringArmsCountdown(t *testing.T) {
	_, _, reg := testWiring(t,
		[]GoalType{"food"},
		map[ItemType][]GoalType{"bread": {"food"}})
	require.NoError(t, reg.Register("food", 1, 5))

	reg.Decrement("food")
	g := reg.Lookup("food")
	require.NotNil(t, g, "recurring goal stays registered when satisfied")
	assert.False(t, g.Active())
	assert.Equal(t, uint64(5), g.Countdown)
}

func TestTickRecurrenceReactivates(t *testing.T) {
	_, prefs, reg := testWiring(t,
		[]GoalType{"food"},
		map[ItemType][]GoalType{"bread": {"food"}})
	require.NoError(t, reg.Register("food", 1, 3))
	reg.Decrement("food")

	for i := 0; i < 2; i++ {
		assert.Empty(t, reg.TickRecurrence())
	}
	reactivated := reg.TickRecurrence()
	require.Equal(t, []GoalType{"food"}, reactivated)

	g := reg.Lookup("food")
	assert.True(t, g.Active())
	assert.Equal(t, 1, g.UnitsRemaining)

	best, err := prefs.BestUse("bread")
	require.NoError(t, err)
	assert.Equal(t, GoalType("food"), best)
}

func TestRegisterMergeRearms(t *testing.T) {
	_, _, reg := testWiring(t,
		[]GoalType{"food"},
		map[ItemType][]GoalType{"bread": {"food"}})
	require.NoError(t, reg.Register("food", 1, 10))
	reg.Decrement("food")
	require.False(t, reg.Lookup("food").Active())

	require.NoError(t, reg.Register("food", 3, 0))
	g := reg.Lookup("food")
	assert.Equal(t, 3, g.UnitsRemaining)
	assert.True(t, g.Active())
	assert.False(t, g.Recurring(), "merge replaces recurrence")
	assert.Equal(t, 1, reg.Len(), "merge does not duplicate")
}

func TestActiveFollowsHierarchyOrder(t *testing.T) {
	_, _, reg := testWiring(t,
		[]GoalType{"food", "shelter", "leisure"},
		map[ItemType][]GoalType{"bread": {"food", "leisure"}})
	require.NoError(t, reg.Register("leisure", 1, 0))
	require.NoError(t, reg.Register("food", 1, 0))

	assert.Equal(t, []GoalType{"food", "leisure"}, reg.Active())

	reg.Decrement("food")
	assert.Equal(t, []GoalType{"leisure"}, reg.Active())
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	_, _, reg := testWiring(t,
		[]GoalType{"food"},
		map[ItemType][]GoalType{"bread": {"food"}})
	assert.False(t, reg.Remove("food"))
}
