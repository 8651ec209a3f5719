package ir

import (
	"fmt"
	"strings"
)

// ID identifies an equivalence class in a graph.
// IDs are dense and only meaningful relative to the graph that issued them.
type ID uint32

// String renders the id as "e<n>".
func (id ID) String() string {
	return fmt.Sprintf("e%d", uint32(id))
}

// Binding maps one pattern variable to the class it matched.
type Binding struct {
	Var   string `json:"var"`
	Class ID     `json:"class"`
}

// Subst is one substitution produced by a successful match.
// Bindings are kept in first-bound order so substitutions print and
// compare deterministically.
type Subst []Binding

// Lookup returns the class bound to v.
func (s Subst) Lookup(v string) (ID, bool) {
	for _, b := range s {
		if b.Var == v {
			return b.Class, true
		}
	}
	return 0, false
}

// Extend returns a copy of s with v bound to id.
// The receiver is never modified, so partial matches can share prefixes.
func (s Subst) Extend(v string, id ID) Subst {
	out := make(Subst, len(s), len(s)+1)
	copy(out, s)
	return append(out, Binding{Var: v, Class: id})
}

// String renders the substitution as {?a=e1, ?b=e2}.
func (s Subst) String() string {
	parts := make([]string, len(s))
	for i, b := range s {
		parts[i] = fmt.Sprintf("%s=%s", b.Var, b.Class)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// SearchMatches holds every substitution a rule found rooted at one class.
//
// The runner only ever consumes len(Substs); the rest is for the rule's own
// apply step.
type SearchMatches struct {
	EClass ID      `json:"eclass"`
	Substs []Subst `json:"substs"`
}

// Len returns the number of substitutions.
func (m SearchMatches) Len() int {
	return len(m.Substs)
}

// TotalMatches sums substitution counts across match sets.
func TotalMatches(ms []SearchMatches) int {
	total := 0
	for _, m := range ms {
		total += m.Len()
	}
	return total
}
