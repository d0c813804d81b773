package nesting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/recipe-nesting/pkg/crafting"
)

func ptr[T any](v T) *T { return &v }

func TestNormalize(t *testing.T) {
	raw := crafting.RawRecipe{
		OutputItemID:    ptr(100),
		OutputItemCount: 5,
		Ingredients: []crafting.RawIngredient{
			{ItemID: 1, Count: 2},
			{ItemID: 3, Count: 4},
		},
		GuildIngredients: []crafting.RawGuildIngredient{
			{UpgradeID: 70, Count: 1},
		},
		Disciplines: []string{"Armorsmith", "Scribe"},
	}

	recipe, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, 100, recipe.ID)
	assert.Equal(t, 5, recipe.Output)
	assert.Equal(t, 0, recipe.Quantity)
	assert.Equal(t, []crafting.Component{
		{ID: 1, Quantity: 2},
		{ID: 3, Quantity: 4},
		{ID: 70, Quantity: 1, Guild: true},
	}, recipe.Components)
	assert.Equal(t, []string{"Armorsmith", "Scribe"}, recipe.Disciplines)
	assert.Nil(t, recipe.MinRating)
	assert.Nil(t, recipe.UpgradeID)
	assert.Nil(t, recipe.OutputRange)
	assert.Nil(t, recipe.AchievementID)
}

func TestNormalizeDefaults(t *testing.T) {
	recipe, err := Normalize(crafting.RawRecipe{
		OutputItemID: ptr(1),
		Ingredients:  []crafting.RawIngredient{},
	})
	require.NoError(t, err)

	assert.NotNil(t, recipe.Disciplines)
	assert.Empty(t, recipe.Disciplines)
	assert.NotNil(t, recipe.Components)
	assert.Empty(t, recipe.Components)
	assert.Nil(t, recipe.MinRating)
}

func TestNormalizeKeepsZeroMinRating(t *testing.T) {
	recipe, err := Normalize(crafting.RawRecipe{
		OutputItemID: ptr(1),
		Ingredients:  []crafting.RawIngredient{},
		MinRating:    ptr(0),
	})
	require.NoError(t, err)

	require.NotNil(t, recipe.MinRating)
	assert.Equal(t, 0, *recipe.MinRating)
}

func TestNormalizeOptionalFields(t *testing.T) {
	raw := crafting.RawRecipe{
		OutputItemID:         ptr(1),
		Ingredients:          []crafting.RawIngredient{},
		MinRating:            ptr(400),
		OutputUpgradeID:      ptr(77),
		OutputItemCountRange: ptr("1-5"),
		AchievementID:        ptr(1234),
	}

	recipe, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, 400, *recipe.MinRating)
	assert.Equal(t, 77, *recipe.UpgradeID)
	assert.Equal(t, "1-5", *recipe.OutputRange)
	assert.Equal(t, 1234, *recipe.AchievementID)

	// The recipe must not alias the record.
	*raw.MinRating = 1
	*raw.OutputUpgradeID = 2
	assert.Equal(t, 400, *recipe.MinRating)
	assert.Equal(t, 77, *recipe.UpgradeID)
}

func TestNormalizeInvalidRecords(t *testing.T) {
	tests := []struct {
		name string
		raw  crafting.RawRecipe
	}{
		{
			name: "missing output item id",
			raw:  crafting.RawRecipe{Ingredients: []crafting.RawIngredient{}},
		},
		{
			name: "missing ingredients",
			raw:  crafting.RawRecipe{OutputItemID: ptr(1)},
		},
		{
			name: "ingredient without item id",
			raw: crafting.RawRecipe{
				OutputItemID: ptr(1),
				Ingredients:  []crafting.RawIngredient{{Count: 3}},
			},
		},
		{
			name: "guild ingredient without upgrade id",
			raw: crafting.RawRecipe{
				OutputItemID:     ptr(1),
				Ingredients:      []crafting.RawIngredient{},
				GuildIngredients: []crafting.RawGuildIngredient{{Count: 1}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipe, err := Normalize(tt.raw)
			require.ErrorIs(t, err, ErrInvalidRecord)
			assert.Nil(t, recipe)
		})
	}
}

func TestNormalizeAllReportsRecordPosition(t *testing.T) {
	raws := []crafting.RawRecipe{
		{OutputItemID: ptr(1), Ingredients: []crafting.RawIngredient{}},
		{Ingredients: []crafting.RawIngredient{}},
	}

	_, err := NormalizeAll(raws)
	require.ErrorIs(t, err, ErrInvalidRecord)
	assert.Contains(t, err.Error(), "record 1")
}
