package rewrite

import (
	"fmt"
	"strings"

	"github.com/roach88/eqsat/internal/egraph"
	"github.com/roach88/eqsat/internal/ir"
)

// Pattern is a compiled pattern tree.
type Pattern struct {
	// Var is set for variable leaves ("?x"); Op and Children are unused.
	Var      string
	Op       ir.Symbol
	Children []*Pattern
}

// IsVar reports whether the pattern is a bare variable.
func (p *Pattern) IsVar() bool {
	return p.Var != ""
}

// ParsePattern parses pattern source.
func ParsePattern(src string) (*Pattern, error) {
	s, err := ir.ParseSexp(src)
	if err != nil {
		return nil, err
	}
	return compileSexp(s)
}

func compileSexp(s ir.Sexp) (*Pattern, error) {
	if !s.IsList {
		if strings.HasPrefix(s.Atom, "?") {
			if len(s.Atom) == 1 {
				return nil, &ir.ParseError{Offset: s.Offset, Message: "variable needs a name after '?'"}
			}
			return &Pattern{Var: s.Atom}, nil
		}
		return &Pattern{Op: ir.Intern(s.Atom)}, nil
	}
	if len(s.List) == 0 {
		return nil, &ir.ParseError{Offset: s.Offset, Message: "empty list is not a pattern"}
	}
	head := s.List[0]
	if head.IsList {
		return nil, &ir.ParseError{Offset: head.Offset, Message: "operator must be an atom"}
	}
	if strings.HasPrefix(head.Atom, "?") {
		return nil, &ir.ParseError{Offset: head.Offset, Message: fmt.Sprintf("operator %q cannot be a variable", head.Atom)}
	}
	p := &Pattern{Op: ir.Intern(head.Atom), Children: make([]*Pattern, 0, len(s.List)-1)}
	for _, child := range s.List[1:] {
		c, err := compileSexp(child)
		if err != nil {
			return nil, err
		}
		p.Children = append(p.Children, c)
	}
	return p, nil
}

// Vars returns the pattern's variables in first-occurrence order.
func (p *Pattern) Vars() []string {
	var out []string
	seen := map[string]bool{}
	var walk func(*Pattern)
	walk = func(p *Pattern) {
		if p.IsVar() {
			if !seen[p.Var] {
				seen[p.Var] = true
				out = append(out, p.Var)
			}
			return
		}
		for _, c := range p.Children {
			walk(c)
		}
	}
	walk(p)
	return out
}

// String renders the pattern in source form.
func (p *Pattern) String() string {
	if p.IsVar() {
		return p.Var
	}
	if len(p.Children) == 0 {
		return p.Op.String()
	}
	parts := make([]string, 0, len(p.Children)+1)
	parts = append(parts, p.Op.String())
	for _, c := range p.Children {
		parts = append(parts, c.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Search returns every match of p in g, one entry per class with at least
// one substitution. Classes are visited in ascending id order and e-nodes in
// insertion order, so the result is deterministic.
func (p *Pattern) Search(g *egraph.EGraph) []ir.SearchMatches {
	var out []ir.SearchMatches
	for _, class := range g.Classes() {
		if substs := p.SearchClass(g, class.ID); len(substs) > 0 {
			out = append(out, ir.SearchMatches{EClass: class.ID, Substs: substs})
		}
	}
	return out
}

// SearchClass returns the substitutions under which p matches class id.
func (p *Pattern) SearchClass(g *egraph.EGraph, id ir.ID) []ir.Subst {
	return p.match(g, g.Find(id), nil)
}

// match extends subst in every way that makes p match class id.
// Backtracking is implicit: each branch works on its own copy of subst.
func (p *Pattern) match(g *egraph.EGraph, id ir.ID, subst ir.Subst) []ir.Subst {
	if p.IsVar() {
		if bound, ok := subst.Lookup(p.Var); ok {
			if g.Find(bound) == id {
				return []ir.Subst{subst}
			}
			return nil
		}
		return []ir.Subst{subst.Extend(p.Var, id)}
	}

	var out []ir.Subst
	for _, n := range g.Class(id).Nodes {
		if n.Op != p.Op || len(n.Children) != len(p.Children) {
			continue
		}
		partial := []ir.Subst{subst}
		for i, child := range p.Children {
			var next []ir.Subst
			for _, s := range partial {
				next = append(next, child.match(g, g.Find(n.Children[i]), s)...)
			}
			partial = next
			if len(partial) == 0 {
				break
			}
		}
		out = append(out, partial...)
	}
	return out
}

// Instantiate adds p to g under subst and returns the resulting class.
// Every variable in p must be bound.
func (p *Pattern) Instantiate(g *egraph.EGraph, subst ir.Subst) (ir.ID, error) {
	if p.IsVar() {
		id, ok := subst.Lookup(p.Var)
		if !ok {
			return 0, fmt.Errorf("unbound variable %s", p.Var)
		}
		return g.Find(id), nil
	}
	children := make([]ir.ID, len(p.Children))
	for i, c := range p.Children {
		id, err := c.Instantiate(g, subst)
		if err != nil {
			return 0, err
		}
		children[i] = id
	}
	return g.Add(ir.Node{Op: p.Op, Children: children}), nil
}
