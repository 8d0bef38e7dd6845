package types

import "strings"

// Region is one node of the housing registry's territorial hierarchy.
// Leaves are the finest-grained grouping that carries a building listing;
// every node links back to its ancestors through Parent.
type Region struct {
	// Parent is the owning link to the enclosing region, nil at a root.
	Parent *Region

	// Name is the display name shown on the registry's listing page.
	Name string

	// ID is the registry's territory id (the tid query parameter).
	// Disambiguation rows on the site render a link without a target;
	// such pseudo-regions carry a nil ID and are never crawled further.
	ID *int

	// Buildings is the building count the listing page reports for this node.
	Buildings int
}

// NewRegion creates a region node under parent. A nil id marks a
// pseudo-region that has no sub-listing of its own.
func NewRegion(parent *Region, name string, id *int, buildings int) *Region {
	return &Region{
		Parent:    parent,
		Name:      name,
		ID:        id,
		Buildings: buildings,
	}
}

// Path returns the ancestry as "Root / ... / Name" for diagnostics.
func (r *Region) Path() string {
	var names []string
	for node := r; node != nil; node = node.Parent {
		names = append(names, node.Name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, " / ")
}

// HasAncestor reports whether the region itself or any of its ancestors
// carries the given name. Used to restrict batch runs to one subtree.
func (r *Region) HasAncestor(name string) bool {
	for node := r; node != nil; node = node.Parent {
		if node.Name == name {
			return true
		}
	}
	return false
}
