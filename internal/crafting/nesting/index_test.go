package nesting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/recipe-nesting/pkg/crafting"
)

func TestBuildIndexLastWriteWins(t *testing.T) {
	first := &crafting.Recipe{ID: 1, Output: 1}
	second := &crafting.Recipe{ID: 2, Output: 1}
	replacement := &crafting.Recipe{ID: 1, Output: 9}

	ix := BuildIndex([]*crafting.Recipe{first, second, replacement})

	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, []int{1, 2}, ix.IDs())

	got, ok := ix.Lookup(1)
	require.True(t, ok)
	assert.Same(t, replacement, got)

	_, ok = ix.Lookup(3)
	assert.False(t, ok)
}

func TestBuildIndexUpgradeLookup(t *testing.T) {
	ix := BuildIndex([]*crafting.Recipe{
		{ID: 10, UpgradeID: ptr(7)},
		{ID: 11, UpgradeID: ptr(7)},
		{ID: 12, UpgradeID: ptr(8)},
		{ID: 13},
	})

	got, ok := ix.LookupUpgrade(7)
	require.True(t, ok)
	assert.Equal(t, 10, got.ID, "first recipe in key order wins the upgrade id")

	got, ok = ix.LookupUpgrade(8)
	require.True(t, ok)
	assert.Equal(t, 12, got.ID)

	_, ok = ix.LookupUpgrade(9)
	assert.False(t, ok)
}

func TestBuildIndexUpgradeOfReplacedRecipe(t *testing.T) {
	ix := BuildIndex([]*crafting.Recipe{
		{ID: 10, UpgradeID: ptr(7)},
		{ID: 10, UpgradeID: ptr(8)},
	})

	_, ok := ix.LookupUpgrade(7)
	assert.False(t, ok, "replaced recipe must not stay reachable by upgrade id")

	got, ok := ix.LookupUpgrade(8)
	require.True(t, ok)
	assert.Equal(t, 10, got.ID)
}

func TestIndexRecipesInKeyOrder(t *testing.T) {
	ix := BuildIndex([]*crafting.Recipe{{ID: 30}, {ID: 10}, {ID: 20}, nil})

	var ids []int
	for _, r := range ix.Recipes() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int{30, 10, 20}, ids)
}
