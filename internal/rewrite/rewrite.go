package rewrite

import (
	"fmt"
	"log/slog"

	"github.com/roach88/eqsat/internal/egraph"
	"github.com/roach88/eqsat/internal/engine"
	"github.com/roach88/eqsat/internal/ir"
)

var _ engine.Rule[*egraph.EGraph] = (*Rewrite)(nil)

// Rewrite is a named LHS => RHS rule.
type Rewrite struct {
	name string
	lhs  *Pattern
	rhs  *Pattern
}

// RuleError reports an invalid rule definition.
type RuleError struct {
	Rule    string
	Side    string // "lhs", "rhs" or "" for the rule as a whole
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	if e.Side == "" {
		return fmt.Sprintf("rule %q: %s", e.Rule, e.Message)
	}
	return fmt.Sprintf("rule %q %s: %s", e.Rule, e.Side, e.Message)
}

// Unwrap returns the underlying parse error, if any.
func (e *RuleError) Unwrap() error {
	return e.Err
}

// New compiles and validates a rule.
//
// The LHS must not be a bare variable, and every RHS variable must be bound
// by the LHS.
func New(spec ir.RuleSpec) (*Rewrite, error) {
	if spec.Name == "" {
		return nil, &RuleError{Message: "name is required"}
	}
	lhs, err := ParsePattern(spec.LHS)
	if err != nil {
		return nil, &RuleError{Rule: spec.Name, Side: "lhs", Message: err.Error(), Err: err}
	}
	if lhs.IsVar() {
		return nil, &RuleError{Rule: spec.Name, Side: "lhs", Message: "must not be a bare variable"}
	}
	rhs, err := ParsePattern(spec.RHS)
	if err != nil {
		return nil, &RuleError{Rule: spec.Name, Side: "rhs", Message: err.Error(), Err: err}
	}

	bound := map[string]bool{}
	for _, v := range lhs.Vars() {
		bound[v] = true
	}
	for _, v := range rhs.Vars() {
		if !bound[v] {
			return nil, &RuleError{Rule: spec.Name, Side: "rhs", Message: fmt.Sprintf("variable %s is not bound by lhs", v)}
		}
	}

	return &Rewrite{name: spec.Name, lhs: lhs, rhs: rhs}, nil
}

// MustNew is like New but panics on error. Use only with literal rules.
func MustNew(name, lhs, rhs string) *Rewrite {
	r, err := New(ir.RuleSpec{Name: name, LHS: lhs, RHS: rhs})
	if err != nil {
		panic(err)
	}
	return r
}

// Compile builds a Rewrite for each spec, in order.
func Compile(specs []ir.RuleSpec) ([]*Rewrite, error) {
	out := make([]*Rewrite, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if seen[spec.Name] {
			return nil, &RuleError{Rule: spec.Name, Message: "duplicate rule name"}
		}
		seen[spec.Name] = true
		r, err := New(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Rules converts rewrites to the runner's rule type.
func Rules(rws []*Rewrite) []engine.Rule[*egraph.EGraph] {
	out := make([]engine.Rule[*egraph.EGraph], len(rws))
	for i, r := range rws {
		out[i] = r
	}
	return out
}

// Name returns the rule name.
func (r *Rewrite) Name() string { return r.name }

// LHS returns the search pattern.
func (r *Rewrite) LHS() *Pattern { return r.lhs }

// RHS returns the apply pattern.
func (r *Rewrite) RHS() *Pattern { return r.rhs }

// Spec returns the rule in authored form.
func (r *Rewrite) Spec() ir.RuleSpec {
	return ir.RuleSpec{Name: r.name, LHS: r.lhs.String(), RHS: r.rhs.String()}
}

// Search finds every LHS match in g.
func (r *Rewrite) Search(g *egraph.EGraph) []ir.SearchMatches {
	return r.lhs.Search(g)
}

// Apply instantiates the RHS for every substitution and unions it with the
// matched class. Returns the ids of classes that changed, each once, in the
// order they first changed.
func (r *Rewrite) Apply(g *egraph.EGraph, matches []ir.SearchMatches) []ir.ID {
	var changed []ir.ID
	seen := make(map[ir.ID]bool)
	for _, m := range matches {
		for _, subst := range m.Substs {
			id, err := r.rhs.Instantiate(g, subst)
			if err != nil {
				// New guarantees RHS vars are bound by LHS; a miss here means
				// the matches came from a different rule.
				slog.Warn("skipping substitution",
					"rule", r.name,
					"subst", subst.String(),
					"error", err,
				)
				continue
			}
			if root, ok := g.Union(m.EClass, id); ok && !seen[root] {
				seen[root] = true
				changed = append(changed, root)
			}
		}
	}
	return changed
}

// String renders the rule as "name: lhs => rhs".
func (r *Rewrite) String() string {
	return fmt.Sprintf("%s: %s => %s", r.name, r.lhs, r.rhs)
}
