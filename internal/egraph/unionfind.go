package egraph

import "github.com/roach88/eqsat/internal/ir"

// unionFind is a disjoint-set forest over dense class ids.
type unionFind struct {
	parents []ir.ID
}

// makeSet creates a new singleton set and returns its id.
func (u *unionFind) makeSet() ir.ID {
	id := ir.ID(len(u.parents))
	u.parents = append(u.parents, id)
	return id
}

// find returns the representative of id, halving paths as it goes.
func (u *unionFind) find(id ir.ID) ir.ID {
	for u.parents[id] != id {
		u.parents[id] = u.parents[u.parents[id]]
		id = u.parents[id]
	}
	return id
}

// union makes root the representative of other. Both must already be roots.
func (u *unionFind) union(root, other ir.ID) ir.ID {
	u.parents[other] = root
	return root
}
