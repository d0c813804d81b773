// Package nesting turns flat recipe records into nested recipe trees.
//
// Records are normalized, indexed by output item id and then resolved: each
// component that another recipe produces is replaced by a copy of that
// recipe's resolved tree.
package nesting

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/rsned/recipe-nesting/pkg/crafting"
)

// ErrInvalidRecord is returned for records missing a required field.
var ErrInvalidRecord = errors.New("invalid recipe record")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize converts a raw record into a recipe. Guild ingredients are
// appended after the primary ingredients.
func Normalize(raw crafting.RawRecipe) (*crafting.Recipe, error) {
	if err := validate.Struct(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	components := make([]crafting.Component, 0, len(raw.Ingredients)+len(raw.GuildIngredients))
	for _, ing := range raw.Ingredients {
		components = append(components, crafting.Component{
			ID:       ing.ItemID,
			Quantity: ing.Count,
		})
	}
	for _, ing := range raw.GuildIngredients {
		components = append(components, crafting.Component{
			ID:       ing.UpgradeID,
			Quantity: ing.Count,
			Guild:    true,
		})
	}

	disciplines := make([]string, len(raw.Disciplines))
	copy(disciplines, raw.Disciplines)

	recipe := &crafting.Recipe{
		ID:          *raw.OutputItemID,
		Output:      raw.OutputItemCount,
		Components:  components,
		MinRating:   copyInt(raw.MinRating),
		Disciplines: disciplines,
	}

	// Optional fields stay nil unless the record carries them.
	recipe.UpgradeID = copyInt(raw.OutputUpgradeID)
	recipe.AchievementID = copyInt(raw.AchievementID)
	if raw.OutputItemCountRange != nil {
		r := *raw.OutputItemCountRange
		recipe.OutputRange = &r
	}

	return recipe, nil
}

// NormalizeAll normalizes records in order. The first invalid record stops
// the run and its position is reported.
func NormalizeAll(raws []crafting.RawRecipe) ([]*crafting.Recipe, error) {
	recipes := make([]*crafting.Recipe, 0, len(raws))
	for i, raw := range raws {
		recipe, err := Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
