package egraph

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/eqsat/internal/ir"
)

// EClass is one equivalence class of e-nodes.
type EClass struct {
	ID    ir.ID
	Nodes []ir.Node

	// parents are the e-nodes (and their classes) that use this class as a
	// child. Repaired by Rebuild when this class absorbs another.
	parents []parent
}

type parent struct {
	node  ir.Node
	class ir.ID
}

// EGraph is a union-find of e-classes with a hashcons over e-nodes.
type EGraph struct {
	uf      unionFind
	memo    map[string]ir.ID
	classes []*EClass // indexed by id; nil once merged away
	pending []ir.ID   // classes whose parents need repair
}

// New creates an empty EGraph.
func New() *EGraph {
	return &EGraph{
		memo: make(map[string]ir.ID),
	}
}

// FromTerm creates a graph containing term and returns it with the class of
// the term's root.
func FromTerm(term ir.Term) (*EGraph, ir.ID) {
	g := New()
	root := g.AddTerm(term)
	return g, root
}

// Find returns the canonical id of the class containing id.
// Find is idempotent: Find(Find(x)) == Find(x).
func (g *EGraph) Find(id ir.ID) ir.ID {
	return g.uf.find(id)
}

// Canonicalize returns n with every child replaced by its canonical id.
func (g *EGraph) Canonicalize(n ir.Node) ir.Node {
	return n.MapChildren(g.Find)
}

// Add inserts an e-node and returns its class.
// If an equal e-node already exists its class is returned instead.
func (g *EGraph) Add(n ir.Node) ir.ID {
	n = g.Canonicalize(n)
	key := n.Key()
	if id, ok := g.memo[key]; ok {
		return g.Find(id)
	}

	id := g.uf.makeSet()
	class := &EClass{ID: id, Nodes: []ir.Node{n}}
	g.classes = append(g.classes, class)
	for _, child := range n.Children {
		c := g.classes[child]
		c.parents = append(c.parents, parent{node: n, class: id})
	}
	g.memo[key] = id
	return id
}

// AddTerm inserts every node of term and returns the class of its root.
func (g *EGraph) AddTerm(term ir.Term) ir.ID {
	if term.IsEmpty() {
		panic("egraph: AddTerm on empty term")
	}
	ids := make([]ir.ID, term.Len())
	for i, n := range term.Nodes() {
		ids[i] = g.Add(n.MapChildren(func(c ir.ID) ir.ID { return ids[c] }))
	}
	return ids[term.Root()]
}

// Lookup returns the class of an e-node without inserting it.
func (g *EGraph) Lookup(n ir.Node) (ir.ID, bool) {
	id, ok := g.memo[g.Canonicalize(n).Key()]
	if !ok {
		return 0, false
	}
	return g.Find(id), true
}

// LookupTerm returns the class representing term without inserting it.
func (g *EGraph) LookupTerm(term ir.Term) (ir.ID, bool) {
	if term.IsEmpty() {
		return 0, false
	}
	ids := make([]ir.ID, term.Len())
	for i, n := range term.Nodes() {
		id, ok := g.Lookup(n.MapChildren(func(c ir.ID) ir.ID { return ids[c] }))
		if !ok {
			return 0, false
		}
		ids[i] = id
	}
	return ids[term.Root()], true
}

// Equivalent reports whether both terms are represented and share a class.
// Only meaningful on a rebuilt graph.
func (g *EGraph) Equivalent(a, b ir.Term) bool {
	ida, ok := g.LookupTerm(a)
	if !ok {
		return false
	}
	idb, ok := g.LookupTerm(b)
	if !ok {
		return false
	}
	return ida == idb
}

// Union merges the classes of a and b.
// Returns the surviving id and whether anything changed.
// The hashcons and congruence invariants are restored by Rebuild.
func (g *EGraph) Union(a, b ir.ID) (ir.ID, bool) {
	a, b = g.Find(a), g.Find(b)
	if a == b {
		return a, false
	}

	// Keep the class with more parents as root so fewer parents move.
	ca, cb := g.classes[a], g.classes[b]
	if len(ca.parents) < len(cb.parents) || (len(ca.parents) == len(cb.parents) && b < a) {
		a, b = b, a
		ca, cb = cb, ca
	}

	g.uf.union(a, b)
	ca.Nodes = append(ca.Nodes, cb.Nodes...)
	ca.parents = append(ca.parents, cb.parents...)
	g.classes[b] = nil
	g.pending = append(g.pending, a)
	return a, true
}

// Rebuild restores the hashcons and congruence invariants after a batch of
// unions and returns the number of congruence merges it performed.
func (g *EGraph) Rebuild() int {
	merges := 0
	for len(g.pending) > 0 {
		todo := g.pending
		g.pending = nil
		seen := make(map[ir.ID]bool, len(todo))
		for _, id := range todo {
			id = g.Find(id)
			if seen[id] {
				continue
			}
			seen[id] = true
			merges += g.repair(id)
		}
	}
	g.dedupNodes()

	slog.Debug("egraph rebuilt",
		"congruence_merges", merges,
		"nodes", g.Size(),
		"classes", g.ClassCount(),
	)
	return merges
}

// repair re-canonicalizes the parents of one class, updating the hashcons
// and merging parents that became congruent.
func (g *EGraph) repair(id ir.ID) int {
	class := g.classes[g.Find(id)]
	parents := class.parents
	class.parents = nil

	for _, p := range parents {
		delete(g.memo, p.node.Key())
		g.memo[g.Canonicalize(p.node).Key()] = g.Find(p.class)
	}

	merges := 0
	byKey := make(map[string]int, len(parents))
	repaired := make([]parent, 0, len(parents))
	for _, p := range parents {
		n := g.Canonicalize(p.node)
		key := n.Key()
		if i, ok := byKey[key]; ok {
			if _, changed := g.Union(repaired[i].class, p.class); changed {
				merges++
			}
			continue
		}
		byKey[key] = len(repaired)
		repaired = append(repaired, parent{node: n, class: g.Find(p.class)})
	}

	// Union above may have merged this class away; attach to the survivor.
	survivor := g.classes[g.Find(id)]
	survivor.parents = append(survivor.parents, repaired...)
	return merges
}

// dedupNodes canonicalizes each class's e-nodes and drops duplicates,
// keeping first-insertion order.
func (g *EGraph) dedupNodes() {
	for _, class := range g.classes {
		if class == nil {
			continue
		}
		seen := make(map[string]bool, len(class.Nodes))
		nodes := class.Nodes[:0]
		for _, n := range class.Nodes {
			n = g.Canonicalize(n)
			key := n.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			nodes = append(nodes, n)
		}
		class.Nodes = nodes
	}
}

// Size returns the total number of e-nodes across all classes.
func (g *EGraph) Size() int {
	total := 0
	for _, class := range g.classes {
		if class != nil {
			total += len(class.Nodes)
		}
	}
	return total
}

// ClassCount returns the number of live e-classes.
func (g *EGraph) ClassCount() int {
	count := 0
	for _, class := range g.classes {
		if class != nil {
			count++
		}
	}
	return count
}

// Class returns the class containing id.
func (g *EGraph) Class(id ir.ID) *EClass {
	return g.classes[g.Find(id)]
}

// Classes returns the live classes in ascending id order.
// The order is stable across runs with the same inputs.
func (g *EGraph) Classes() []*EClass {
	out := make([]*EClass, 0, len(g.classes))
	for _, class := range g.classes {
		if class != nil {
			out = append(out, class)
		}
	}
	return out
}

// IsClean reports whether no unions are waiting for Rebuild.
func (g *EGraph) IsClean() bool {
	return len(g.pending) == 0
}

// Dump renders every class and its e-nodes, for trace logging.
func (g *EGraph) Dump() string {
	var b strings.Builder
	for _, class := range g.Classes() {
		fmt.Fprintf(&b, "%s:", class.ID)
		for _, n := range class.Nodes {
			b.WriteByte(' ')
			if n.IsLeaf() {
				b.WriteString(n.Op.String())
				continue
			}
			parts := make([]string, len(n.Children))
			for i, c := range n.Children {
				parts[i] = c.String()
			}
			fmt.Fprintf(&b, "(%s %s)", n.Op, strings.Join(parts, " "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
