package nesting

import (
	"io"
	"log/slog"
	"sort"

	"github.com/rsned/recipe-nesting/pkg/crafting"
)

// Option configures a Nester.
type Option func(*Nester)

// WithLogger sets the logger used for debug output during resolution.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Nester) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// Nester resolves the recipes of an index in place. Each recipe is resolved
// at most once; later references reuse the resolved recipe through a copy.
//
// A Nester is not safe for concurrent use.
type Nester struct {
	index  *Index
	logger *slog.Logger
}

// NewNester creates a Nester over the given index.
func NewNester(ix *Index, opts ...Option) *Nester {
	n := &Nester{
		index:  ix,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Resolve resolves the recipe for id and everything it depends on.
func (n *Nester) Resolve(id int) (*crafting.Recipe, bool) {
	e := n.index.entry(id)
	if e == nil {
		return nil, false
	}
	return n.resolve(e), true
}

// ResolveAll resolves every indexed recipe and returns them in key order.
func (n *Nester) ResolveAll() []*crafting.Recipe {
	for _, id := range n.index.order {
		n.resolve(n.index.entries[id])
	}
	return n.index.Recipes()
}

func (n *Nester) resolve(e *entry) *crafting.Recipe {
	if e.status != unresolved {
		return e.recipe
	}

	// Marked before descending so a cycle back to this recipe stops here.
	e.status = inProgress

	recipe := e.recipe
	if recipe.Quantity == 0 {
		recipe.Quantity = 1
	}

	// recipe.Components keeps the unresolved list until the end, which is
	// what a cyclic reference sees while this recipe is in progress.
	components := make([]crafting.Component, 0, len(recipe.Components))
	for _, comp := range recipe.Components {
		if resolvedComp, keep := n.resolveComponent(recipe, comp); keep {
			components = append(components, resolvedComp)
		}
	}

	sort.SliceStable(components, func(i, j int) bool {
		return !components[i].Craftable() && components[j].Craftable()
	})

	if len(components) == 0 {
		components = nil
	}
	recipe.Components = components
	e.status = resolved

	return recipe
}

// resolveComponent returns the resolved form of comp and whether it stays in
// the component list.
func (n *Nester) resolveComponent(recipe *crafting.Recipe, comp crafting.Component) (crafting.Component, bool) {
	var (
		target *crafting.Recipe
		found  bool
	)
	if comp.Guild {
		target, found = n.index.LookupUpgrade(comp.ID)
	} else {
		target, found = n.index.Lookup(comp.ID)
	}

	if !found {
		if comp.Guild {
			n.logger.Debug("dropping unresolved guild component",
				"recipe_id", recipe.ID, "upgrade_id", comp.ID)
			return crafting.Component{}, false
		}
		return comp, true
	}

	if target.ID == recipe.ID {
		if comp.Guild {
			return crafting.Component{ID: recipe.ID, Quantity: comp.Quantity}, true
		}
		return comp, true
	}

	te := n.index.entry(target.ID)
	switch te.status {
	case unresolved:
		n.resolve(te)
	case inProgress:
		n.logger.Debug("cyclic component, embedding partial recipe",
			"recipe_id", recipe.ID, "component_id", target.ID, "status", te.status.String())
	}

	embedded := te.recipe.Clone()
	embedded.Quantity = comp.Quantity

	return crafting.Component{ID: embedded.ID, Quantity: comp.Quantity, Recipe: embedded}, true
}
