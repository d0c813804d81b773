package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rsned/recipe-nesting/pkg/crafting"
)

// ToolDefinition describes an MCP tool.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// JSONSchema is a simplified JSON Schema representation.
type JSONSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a schema property.
type Property struct {
	Type        string              `json:"type,omitempty"`
	Description string              `json:"description,omitempty"`
	Default     any                 `json:"default,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

// GetToolDefinitions returns all tool definitions.
func GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		nestRecipesTool(),
		recipeTreeTool(),
		listRecipeTreesTool(),
	}
}

func ingredientProperty(idField, idDescription string) *Property {
	return &Property{
		Type: "object",
		Properties: map[string]Property{
			idField: {Type: "integer", Description: idDescription},
			"count": {Type: "integer", Description: "Quantity required"},
		},
		Required: []string{idField, "count"},
	}
}

func nestRecipesTool() ToolDefinition {
	return ToolDefinition{
		Name:        "nest_recipes",
		Description: "Nest flat recipe records into one recipe tree per output item. Craftable components are replaced by their own recipe trees.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"recipes": {
					Type:        "array",
					Description: "Raw recipe records",
					Items: &Property{
						Type: "object",
						Properties: map[string]Property{
							"output_item_id":    {Type: "integer", Description: "Item produced by the recipe"},
							"output_item_count": {Type: "integer", Description: "Units produced per craft"},
							"ingredients": {
								Type:  "array",
								Items: ingredientProperty("item_id", "Required item"),
							},
							"guild_ingredients": {
								Type:  "array",
								Items: ingredientProperty("upgrade_id", "Required guild upgrade"),
							},
							"min_rating":              {Type: "integer", Description: "Minimum discipline rating"},
							"disciplines":             {Type: "array", Items: &Property{Type: "string"}},
							"output_upgrade_id":       {Type: "integer", Description: "Guild upgrade produced by the recipe"},
							"output_item_count_range": {Type: "string"},
							"achievement_id":          {Type: "integer"},
						},
						Required: []string{"output_item_id", "ingredients"},
					},
				},
			},
			Required: []string{"recipes"},
		},
	}
}

func recipeTreeTool() ToolDefinition {
	minID := 1.0

	return ToolDefinition{
		Name:        "recipe_tree",
		Description: "Look up the stored nested recipe tree for an output item id.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"id": {
					Type:        "integer",
					Description: "Output item id",
					Minimum:     &minID,
				},
			},
			Required: []string{"id"},
		},
	}
}

func listRecipeTreesTool() ToolDefinition {
	return ToolDefinition{
		Name:        "list_recipe_trees",
		Description: "List the output item ids of all stored recipe trees.",
		InputSchema: JSONSchema{Type: "object"},
	}
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

func (s *Server) toolNestRecipes(ctx context.Context, args json.RawMessage) (any, error) {
	var req crafting.NestRequest
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	return s.engine.NestRecipes(ctx, req)
}

func (s *Server) toolRecipeTree(ctx context.Context, args json.RawMessage) (any, error) {
	var req crafting.RecipeTreeRequest
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	return s.engine.RecipeTree(ctx, req)
}

func (s *Server) toolListRecipeTrees(ctx context.Context, args json.RawMessage) (any, error) {
	return s.engine.ListTrees(ctx)
}
