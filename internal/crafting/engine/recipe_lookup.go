package engine

import (
	"context"
	"fmt"

	"github.com/rsned/recipe-nesting/pkg/crafting"
)

// RecipeTree executes the recipe_tree tool logic. Cached trees are served
// as copies so callers can't change what later lookups see.
func (e *Engine) RecipeTree(ctx context.Context, req crafting.RecipeTreeRequest) (*crafting.RecipeTreeResponse, error) {
	if tree, ok := e.cache.Get(req.ID); ok {
		return &crafting.RecipeTreeResponse{Recipe: tree.Clone(), Cached: true}, nil
	}

	tree, err := e.trees.GetTree(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("getting tree: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("%w: %d", ErrTreeNotFound, req.ID)
	}

	e.cache.Add(req.ID, tree)
	e.logger.Debug("cached recipe tree", "id", req.ID, "cached", e.cache.Len())

	return &crafting.RecipeTreeResponse{Recipe: tree.Clone()}, nil
}
