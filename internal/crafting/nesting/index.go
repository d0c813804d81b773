package nesting

import "github.com/rsned/recipe-nesting/pkg/crafting"

// status tracks where an index entry is in resolution.
type status uint8

const (
	unresolved status = iota
	inProgress
	resolved
)

func (s status) String() string {
	switch s {
	case unresolved:
		return "unresolved"
	case inProgress:
		return "in-progress"
	case resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

type entry struct {
	recipe *crafting.Recipe
	status status
}

// Index maps output item ids to recipes and remembers how far each recipe
// has been resolved. Keys keep the position of their first insertion.
type Index struct {
	entries   map[int]*entry
	order     []int
	byUpgrade map[int]int // upgrade id -> output item id
}

// BuildIndex indexes recipes by output item id. A recipe sharing its id
// with an earlier one replaces it.
func BuildIndex(recipes []*crafting.Recipe) *Index {
	ix := &Index{
		entries:   make(map[int]*entry, len(recipes)),
		order:     make([]int, 0, len(recipes)),
		byUpgrade: make(map[int]int),
	}

	for _, r := range recipes {
		if r == nil {
			continue
		}
		if _, exists := ix.entries[r.ID]; !exists {
			ix.order = append(ix.order, r.ID)
		}
		ix.entries[r.ID] = &entry{recipe: r}
	}

	// Built after deduplication so only surviving recipes are reachable.
	// The first recipe in key order wins an upgrade id.
	for _, id := range ix.order {
		r := ix.entries[id].recipe
		if r.UpgradeID == nil {
			continue
		}
		if _, taken := ix.byUpgrade[*r.UpgradeID]; !taken {
			ix.byUpgrade[*r.UpgradeID] = id
		}
	}

	return ix
}

// Len returns the number of indexed recipes.
func (ix *Index) Len() int {
	return len(ix.order)
}

// IDs returns the indexed output item ids in key order.
func (ix *Index) IDs() []int {
	ids := make([]int, len(ix.order))
	copy(ids, ix.order)
	return ids
}

// Lookup returns the canonical recipe for an output item id.
func (ix *Index) Lookup(id int) (*crafting.Recipe, bool) {
	e, ok := ix.entries[id]
	if !ok {
		return nil, false
	}
	return e.recipe, true
}

// LookupUpgrade returns the recipe producing the given guild upgrade.
func (ix *Index) LookupUpgrade(upgradeID int) (*crafting.Recipe, bool) {
	id, ok := ix.byUpgrade[upgradeID]
	if !ok {
		return nil, false
	}
	return ix.Lookup(id)
}

// Recipes returns the canonical recipes in key order.
func (ix *Index) Recipes() []*crafting.Recipe {
	recipes := make([]*crafting.Recipe, 0, len(ix.order))
	for _, id := range ix.order {
		recipes = append(recipes, ix.entries[id].recipe)
	}
	return recipes
}

func (ix *Index) entry(id int) *entry {
	return ix.entries[id]
}
