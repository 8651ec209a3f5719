package testutil

import "github.com/roach88/eqsat/internal/ir"

// FakeGraph is a graph stand-in whose size is set directly by rules.
// It satisfies engine.Graph.
type FakeGraph struct {
	Nodes    int
	Classes  int
	Rebuilds int
	parent   map[ir.ID]ir.ID
}

// NewFakeGraph creates a graph with the given starting size.
func NewFakeGraph(nodes, classes int) *FakeGraph {
	return &FakeGraph{Nodes: nodes, Classes: classes}
}

func (g *FakeGraph) Size() int       { return g.Nodes }
func (g *FakeGraph) ClassCount() int { return g.Classes }

// Find follows merges recorded with Merge.
func (g *FakeGraph) Find(id ir.ID) ir.ID {
	for {
		p, ok := g.parent[id]
		if !ok {
			return id
		}
		id = p
	}
}

// Merge records that from now resolves to to.
func (g *FakeGraph) Merge(from, to ir.ID) {
	if g.parent == nil {
		g.parent = make(map[ir.ID]ir.ID)
	}
	g.parent[from] = to
}

// Rebuild counts calls.
func (g *FakeGraph) Rebuild() int {
	g.Rebuilds++
	return 0
}

// FakeRule reports a fixed number of matches and, when applied, grows the
// graph and reports a fixed number of changed ids.
type FakeRule struct {
	RuleName string

	// Matches is the substitution count each search reports.
	Matches int

	// Grow is added to the graph's node count on every apply.
	Grow int

	// Changed is the number of ids each apply reports. Defaults to 1 when
	// Matches is positive.
	Changed int

	Searches int
	Applies  int
}

// Name returns RuleName.
func (r *FakeRule) Name() string { return r.RuleName }

// Search returns one match set with Matches substitutions.
func (r *FakeRule) Search(*FakeGraph) []ir.SearchMatches {
	r.Searches++
	if r.Matches == 0 {
		return nil
	}
	substs := make([]ir.Subst, r.Matches)
	return []ir.SearchMatches{{EClass: 0, Substs: substs}}
}

// Apply grows g and reports Changed ids.
func (r *FakeRule) Apply(g *FakeGraph, _ []ir.SearchMatches) []ir.ID {
	r.Applies++
	g.Nodes += r.Grow
	n := r.Changed
	if n == 0 {
		n = 1
	}
	if n < 0 {
		return nil
	}
	return make([]ir.ID, n)
}
