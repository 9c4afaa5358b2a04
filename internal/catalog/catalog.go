// Package catalog holds the reference set of spending categories and
// resolves free-text category descriptions against their aliases.
package catalog

import (
	"fmt"
	"log/slog"

	"familybudget/internal/core"
)

// Catalog is the in-memory category reference, loaded once at startup.
// The alias index is precomputed in catalog order; the first category
// that claims an alias keeps it, so overlapping aliases in the seed data
// resolve deterministically.
type Catalog struct {
	categories []core.Category
	index      map[string]core.Category
	fallback   core.Category
}

// New builds a catalog from categories in their catalog order. The list
// must contain the reserved fallback category (codename "other").
func New(categories []core.Category) (*Catalog, error) {
	c := &Catalog{
		categories: categories,
		index:      make(map[string]core.Category),
	}

	haveFallback := false
	for _, cat := range categories {
		if err := cat.Validate(); err != nil {
			return nil, fmt.Errorf("category %q: %w", cat.Codename, err)
		}
		if cat.Codename == core.FallbackCodename {
			haveFallback = true
			c.fallback = cat
		}
		for _, alias := range append([]string{cat.Name}, cat.Aliases...) {
			if alias == "" {
				continue
			}
			if owner, taken := c.index[alias]; taken {
				slog.Warn("Duplicate category alias, first match wins",
					"alias", alias,
					"kept", owner.Codename,
					"ignored", cat.Codename)
				continue
			}
			c.index[alias] = cat
		}
	}
	if !haveFallback {
		return nil, fmt.Errorf("catalog has no fallback category %q", core.FallbackCodename)
	}

	return c, nil
}

// All returns the categories in catalog order.
func (c *Catalog) All() []core.Category {
	return c.categories
}

// Fallback returns the reserved "uncategorized" bucket.
func (c *Catalog) Fallback() core.Category {
	return c.fallback
}

// Resolve maps free category text onto a category. Matching is exact and
// case-sensitive over each category's display name and aliases; empty or
// unmatched text resolves to the fallback.
func (c *Catalog) Resolve(categoryText string) core.Category {
	if categoryText == "" {
		return c.fallback
	}
	if cat, ok := c.index[categoryText]; ok {
		return cat
	}
	return c.fallback
}
