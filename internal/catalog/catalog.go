package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Catalog is a read-only lookup of query definitions. It is immutable once
// built; hot-reload creates a new Catalog and swaps it atomically.
type Catalog struct {
	byID  map[string]*QueryDefinition
	order []*QueryDefinition // declaration order
}

// New builds a Catalog from already-typed definitions.
func New(defs ...QueryDefinition) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*QueryDefinition, len(defs))}
	for i := range defs {
		d := defs[i]
		if d.ID == "" {
			return nil, fmt.Errorf("catalog: definition %d has no id", i)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate query id %q", d.ID)
		}
		c.byID[d.ID] = &d
		c.order = append(c.order, &d)
	}
	return c, nil
}

// Get returns the definition for id.
func (c *Catalog) Get(id string) (*QueryDefinition, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// List returns definitions tagged with regulation (case-insensitive), or
// all definitions when regulation is empty, in declaration order.
func (c *Catalog) List(regulation string) []*QueryDefinition {
	out := make([]*QueryDefinition, 0, len(c.order))
	for _, d := range c.order {
		if regulation == "" || strings.EqualFold(d.Regulation, regulation) {
			out = append(out, d)
		}
	}
	return out
}

// Regulations returns the distinct regulation tags, sorted.
func (c *Catalog) Regulations() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range c.order {
		if _, ok := seen[d.Regulation]; ok {
			continue
		}
		seen[d.Regulation] = struct{}{}
		out = append(out, d.Regulation)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.order)
}
