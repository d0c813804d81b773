package nesting

import "github.com/rsned/recipe-nesting/pkg/crafting"

// Nest normalizes raw records, indexes them and resolves every recipe into
// its nested tree. One tree is returned per distinct output item id, in the
// order the ids first appear in raws.
func Nest(raws []crafting.RawRecipe, opts ...Option) ([]*crafting.Recipe, error) {
	recipes, err := NormalizeAll(raws)
	if err != nil {
		return nil, err
	}

	return NewNester(BuildIndex(recipes), opts...).ResolveAll(), nil
}
