package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHierarchyRanks(t *testing.T) {
	h, err := NewHierarchy("food", "shelter", "leisure")
	require.NoError(t, err)

	r, err := h.RankOf("food")
	require.NoError(t, err)
	assert.Equal(t, 0, r)

	r, err = h.RankOf("leisure")
	require.NoError(t, err)
	assert.Equal(t, 2, r)

	_, err = h.RankOf("fame")
	assert.ErrorIs(t, err, ErrUnknownGoal)
}

func TestHierarchyCompare(t *testing.T) {
	h, err := NewHierarchy("food", "shelter", "leisure")
	require.NoError(t, err)

	c, err := h.Compare("food", "leisure")
	require.NoError(t, err)
	assert.Negative(t, c, "food should outrank leisure")

	c, err = h.Compare("leisure", "shelter")
	require.NoError(t, err)
	assert.Positive(t, c)

	c, err = h.Compare("shelter", "shelter")
	require.NoError(t, err)
	assert.Zero(t, c)
}

func TestHierarchyAppend(t *testing.T) {
	h, err := NewHierarchy("food")
	require.NoError(t, err)

	require.NoError(t, h.Append("shelter"))
	assert.Equal(t, 2, h.Len())

	r, err := h.RankOf("shelter")
	require.NoError(t, err)
	assert.Equal(t, 1, r, "appended goals rank below all existing ones")

	assert.Error(t, h.Append("food"), "duplicates rejected")
	assert.Error(t, h.Append(""), "empty type rejected")
}

func TestHierarchyRejectsDuplicates(t *testing.T) {
	_, err := NewHierarchy("food", "food")
	assert.Error(t, err)
}
