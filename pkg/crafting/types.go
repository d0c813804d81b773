// Package crafting contains the core types for recipe nesting.
package crafting

import (
	"encoding/json"
	"fmt"
)

// ============================================
// INPUT TYPES
// ============================================

// RawRecipe is a flat recipe record as delivered by the recipe source.
type RawRecipe struct {
	OutputItemID         *int                 `json:"output_item_id" yaml:"output_item_id" validate:"required"`
	OutputItemCount      int                  `json:"output_item_count" yaml:"output_item_count"`
	Ingredients          []RawIngredient      `json:"ingredients" yaml:"ingredients" validate:"required,dive"`
	GuildIngredients     []RawGuildIngredient `json:"guild_ingredients,omitempty" yaml:"guild_ingredients,omitempty" validate:"omitempty,dive"`
	MinRating            *int                 `json:"min_rating,omitempty" yaml:"min_rating,omitempty"`
	Disciplines          []string             `json:"disciplines,omitempty" yaml:"disciplines,omitempty"`
	OutputUpgradeID      *int                 `json:"output_upgrade_id,omitempty" yaml:"output_upgrade_id,omitempty"`
	OutputItemCountRange *string              `json:"output_item_count_range,omitempty" yaml:"output_item_count_range,omitempty"`
	AchievementID        *int                 `json:"achievement_id,omitempty" yaml:"achievement_id,omitempty"`
}

// RawIngredient is an item requirement of a raw recipe.
type RawIngredient struct {
	ItemID int `json:"item_id" yaml:"item_id" validate:"required"`
	Count  int `json:"count" yaml:"count"`
}

// RawGuildIngredient is a guild upgrade requirement of a raw recipe.
type RawGuildIngredient struct {
	UpgradeID int `json:"upgrade_id" yaml:"upgrade_id" validate:"required"`
	Count     int `json:"count" yaml:"count"`
}

// ============================================
// RECIPE TYPES
// ============================================

// Recipe is a normalized recipe. After nesting, every craftable component
// carries its own resolved copy of the recipe producing it.
type Recipe struct {
	ID            int         `json:"id" yaml:"id"`
	Output        int         `json:"output" yaml:"output"`
	Quantity      int         `json:"quantity" yaml:"quantity"`
	Components    []Component `json:"components,omitempty" yaml:"components,omitempty"`
	MinRating     *int        `json:"min_rating" yaml:"min_rating"` // nil means no minimum
	Disciplines   []string    `json:"disciplines" yaml:"disciplines"`
	UpgradeID     *int        `json:"upgrade_id,omitempty" yaml:"upgrade_id,omitempty"`
	OutputRange   *string     `json:"output_range,omitempty" yaml:"output_range,omitempty"`
	AchievementID *int        `json:"achievement_id,omitempty" yaml:"achievement_id,omitempty"`
}

// Clone returns a deep copy of the recipe, including every embedded
// component recipe.
func (r *Recipe) Clone() *Recipe {
	if r == nil {
		return nil
	}

	c := *r
	if r.Components != nil {
		c.Components = make([]Component, len(r.Components))
		for i, comp := range r.Components {
			comp.Recipe = comp.Recipe.Clone()
			c.Components[i] = comp
		}
	}
	if r.Disciplines != nil {
		c.Disciplines = append(make([]string, 0, len(r.Disciplines)), r.Disciplines...)
	}
	c.MinRating = clonePtr(r.MinRating)
	c.UpgradeID = clonePtr(r.UpgradeID)
	c.OutputRange = clonePtr(r.OutputRange)
	c.AchievementID = clonePtr(r.AchievementID)

	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Component is one entry of a recipe's component list. A leaf component
// only references an item (or a guild upgrade when Guild is set); a
// resolved component embeds the recipe producing it.
type Component struct {
	ID       int     `json:"id" yaml:"id"`
	Quantity int     `json:"quantity" yaml:"quantity"`
	Guild    bool    `json:"guild,omitempty" yaml:"guild,omitempty"`
	Recipe   *Recipe `json:"-" yaml:"-"`
}

// Craftable reports whether the component embeds a recipe that itself has
// components.
func (c Component) Craftable() bool {
	return c.Recipe != nil && len(c.Recipe.Components) > 0
}

// componentRef is the wire form of a leaf component.
type componentRef struct {
	ID       int  `json:"id" yaml:"id"`
	Quantity int  `json:"quantity" yaml:"quantity"`
	Guild    bool `json:"guild,omitempty" yaml:"guild,omitempty"`
}

// MarshalJSON writes an embedded recipe as a flat recipe object and a leaf
// as a plain reference.
func (c Component) MarshalJSON() ([]byte, error) {
	if c.Recipe != nil {
		return json.Marshal(c.Recipe)
	}
	return json.Marshal(componentRef{ID: c.ID, Quantity: c.Quantity, Guild: c.Guild})
}

// UnmarshalJSON reads either wire form. Recipe objects always carry a
// disciplines key; references never do.
func (c *Component) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("decoding component: %w", err)
	}

	if _, ok := probe["disciplines"]; ok {
		var r Recipe
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("decoding component recipe: %w", err)
		}
		*c = Component{ID: r.ID, Quantity: r.Quantity, Recipe: &r}
		return nil
	}

	var ref componentRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return fmt.Errorf("decoding component reference: %w", err)
	}
	*c = Component{ID: ref.ID, Quantity: ref.Quantity, Guild: ref.Guild}
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (c Component) MarshalYAML() (any, error) {
	if c.Recipe != nil {
		return c.Recipe, nil
	}
	return componentRef{ID: c.ID, Quantity: c.Quantity, Guild: c.Guild}, nil
}

// ============================================
// TOOL REQUEST/RESPONSE TYPES
// ============================================

// NestRequest is the input for the nest_recipes tool.
type NestRequest struct {
	Recipes []RawRecipe `json:"recipes"`
}

// NestResponse is the output for the nest_recipes tool.
type NestResponse struct {
	Recipes []*Recipe `json:"recipes"`
	Count   int       `json:"count"`
}

// RecipeTreeRequest is the input for the recipe_tree tool.
type RecipeTreeRequest struct {
	ID int `json:"id"`
}

// RecipeTreeResponse is the output for the recipe_tree tool.
type RecipeTreeResponse struct {
	Recipe *Recipe `json:"recipe"`
	Cached bool    `json:"cached"`
}

// ListTreesResponse is the output for the list_recipe_trees tool.
type ListTreesResponse struct {
	IDs   []int `json:"ids"`
	Total int   `json:"total"`
}
