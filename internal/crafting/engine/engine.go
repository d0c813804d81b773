// Package engine contains the recipe tree query logic.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rsned/recipe-nesting/internal/crafting/nesting"
	"github.com/rsned/recipe-nesting/pkg/crafting"
)

// DefaultCacheSize is the number of trees kept in memory by default.
const DefaultCacheSize = 256

// ErrTreeNotFound is returned when no tree exists for an output item id.
var ErrTreeNotFound = errors.New("recipe tree not found")

// TreeSource provides stored recipe trees. *db.TreeStore implements it.
type TreeSource interface {
	GetTree(ctx context.Context, id int) (*crafting.Recipe, error)
	ListTreeIDs(ctx context.Context) ([]int, error)
}

// Engine is the query engine for recipe trees. It is safe for concurrent
// use.
type Engine struct {
	trees     TreeSource
	cache     *lru.Cache[int, *crafting.Recipe]
	cacheSize int
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCacheSize sets how many trees are cached. Sizes below one fall back
// to DefaultCacheSize.
func WithCacheSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.cacheSize = size
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates a new Engine reading trees from the given source.
func New(trees TreeSource, opts ...Option) (*Engine, error) {
	e := &Engine{
		trees:     trees,
		cacheSize: DefaultCacheSize,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}

	cache, err := lru.New[int, *crafting.Recipe](e.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating tree cache: %w", err)
	}
	e.cache = cache

	return e, nil
}

// NestRecipes nests the given records without touching storage.
func (e *Engine) NestRecipes(ctx context.Context, req crafting.NestRequest) (*crafting.NestResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trees, err := nesting.Nest(req.Recipes, nesting.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}

	return &crafting.NestResponse{
		Recipes: trees,
		Count:   len(trees),
	}, nil
}

// ListTrees returns the ids of all stored trees.
func (e *Engine) ListTrees(ctx context.Context) (*crafting.ListTreesResponse, error) {
	ids, err := e.trees.ListTreeIDs(ctx)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int{}
	}

	return &crafting.ListTreesResponse{IDs: ids, Total: len(ids)}, nil
}
