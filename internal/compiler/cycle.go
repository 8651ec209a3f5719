package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/eqsat/internal/ir"
	"github.com/roach88/eqsat/internal/rewrite"
)

// CycleWarning reports rules that can keep enabling each other.
//
// Cycles are normal in equality saturation (commutativity is a self-loop)
// and the scheduler's backoff keeps them in check, so they are reported,
// never rejected. A cycle containing a rule whose right-hand side is larger
// than its left-hand side can grow the graph without bound and is reported
// at "warning" level; other cycles are "info".
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["rule-a", "rule-b", "rule-a"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeCycles performs static cycle analysis on rules.
//
// The algorithm:
//  1. Build a rule dependency graph: A → B when A's right-hand side builds
//     the operator at the root of B's left-hand side
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a cycle
//
// Rules whose patterns do not parse are skipped; Validate reports them.
// Warnings follow rule declaration order.
func AnalyzeCycles(specs []ir.RuleSpec) []CycleWarning {
	warnings := []CycleWarning{}
	rules := make([]*rewrite.Rewrite, 0, len(specs))
	for _, spec := range specs {
		if r, err := rewrite.New(spec); err == nil {
			rules = append(rules, r)
		}
	}
	if len(rules) == 0 {
		return warnings
	}

	graph := buildDependencyGraph(rules)
	growing := make(map[string]bool)
	for _, r := range rules {
		if patternSize(r.RHS()) > patternSize(r.LHS()) {
			growing[r.Name()] = true
		}
	}

	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph, growing))
		}
	}
	return warnings
}

// dependencyGraph maps rule name → rules it may enable, with a stable node
// order for deterministic traversal.
type dependencyGraph struct {
	nodes []string
	edges map[string][]string
}

func buildDependencyGraph(rules []*rewrite.Rewrite) dependencyGraph {
	graph := dependencyGraph{edges: make(map[string][]string)}

	// root operator → rules whose lhs is rooted there
	byRoot := make(map[ir.Symbol][]string)
	for _, r := range rules {
		graph.nodes = append(graph.nodes, r.Name())
		byRoot[r.LHS().Op] = append(byRoot[r.LHS().Op], r.Name())
	}

	for _, r := range rules {
		graph.edges[r.Name()] = []string{}
		seen := make(map[string]bool)
		for _, op := range builtOperators(r.RHS()) {
			for _, target := range byRoot[op] {
				if !seen[target] {
					seen[target] = true
					graph.edges[r.Name()] = append(graph.edges[r.Name()], target)
				}
			}
		}
	}
	return graph
}

// builtOperators lists the operators a pattern constructs, in pre-order.
func builtOperators(p *rewrite.Pattern) []ir.Symbol {
	if p.IsVar() {
		return nil
	}
	ops := []ir.Symbol{p.Op}
	for _, c := range p.Children {
		ops = append(ops, builtOperators(c)...)
	}
	return ops
}

func patternSize(p *rewrite.Pattern) int {
	n := 1
	for _, c := range p.Children {
		n += patternSize(c)
	}
	return n
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, neighbor := range graph.edges[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Returns a list of SCCs, where each SCC is a list of rule names.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and emit an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range graph.nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning.
func cycleSCCToWarning(scc []string, graph dependencyGraph, growing map[string]bool) CycleWarning {
	level := "info"
	var grows []string
	for _, name := range scc {
		if growing[name] {
			level = "warning"
			grows = append(grows, name)
		}
	}
	suffix := ""
	if len(grows) > 0 {
		suffix = fmt.Sprintf(" (growing: %s)", strings.Join(grows, ", "))
	}

	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("Self-enabling rule: %s → %s%s", name, name, suffix),
			Level:   level,
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Rule cycle: %s%s", strings.Join(path, " → "), suffix),
		Level:   level,
	}
}

// reconstructCyclePath builds a cycle path from an SCC.
//
// Starts at the SCC member declared first and follows edges to other
// members until it returns to the start.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := ""
	for _, node := range graph.nodes {
		if sccSet[node] {
			start = node
			break
		}
	}
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph.edges[current] {
			if sccSet[neighbor] && neighbor != current && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
