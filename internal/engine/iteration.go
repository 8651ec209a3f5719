package engine

import (
	"time"

	"github.com/roach88/eqsat/internal/ir"
)

// AppliedCounts maps rule names to per-step counts, preserving the order in
// which rules were first recorded.
//
// The zero value is an empty table ready to use.
type AppliedCounts struct {
	counts map[string]int
	order  []string
}

// Inc records one successful application of rule: it inserts the rule
// with count 1 or increments an existing entry.
func (a *AppliedCounts) Inc(rule string) {
	if a.counts == nil {
		a.counts = make(map[string]int)
	}
	if _, ok := a.counts[rule]; !ok {
		a.order = append(a.order, rule)
	}
	a.counts[rule]++
}

// Get returns the count for rule.
func (a AppliedCounts) Get(rule string) (int, bool) {
	n, ok := a.counts[rule]
	return n, ok
}

// Len returns the number of distinct rules recorded.
func (a AppliedCounts) Len() int {
	return len(a.order)
}

// IsEmpty reports whether nothing was applied.
func (a AppliedCounts) IsEmpty() bool {
	return len(a.order) == 0
}

// Names returns the recorded rule names in insertion order.
func (a AppliedCounts) Names() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Each calls f for every entry in insertion order.
func (a AppliedCounts) Each(f func(rule string, count int)) {
	for _, name := range a.order {
		f(name, a.counts[name])
	}
}

// Iteration is the record of one completed step.
// It is created once by Step and never modified afterwards.
type Iteration struct {
	// EGraphNodes and EGraphClasses are sampled at the start of the step.
	EGraphNodes   int
	EGraphClasses int

	// Applied holds every rule whose apply changed the graph this step.
	// The count is the number of apply invocations that changed something,
	// not the number of substitutions; with one apply per rule per step it
	// is always 1.
	Applied AppliedCounts

	SearchTime  time.Duration
	ApplyTime   time.Duration
	RebuildTime time.Duration
}

// ToCanonical converts the iteration to a map for canonical JSON.
// Durations are integer microseconds.
func (it Iteration) ToCanonical() map[string]any {
	applied := make([]any, 0, it.Applied.Len())
	it.Applied.Each(func(rule string, count int) {
		applied = append(applied, map[string]any{"rule": rule, "count": count})
	})
	return map[string]any{
		"egraph_nodes":    it.EGraphNodes,
		"egraph_classes":  it.EGraphClasses,
		"applied":         applied,
		"search_time_us":  it.SearchTime.Microseconds(),
		"apply_time_us":   it.ApplyTime.Microseconds(),
		"rebuild_time_us": it.RebuildTime.Microseconds(),
	}
}

// RunReport summarizes one RunExpr call.
type RunReport struct {
	InitialExpr ir.Term

	// InitialExprClass is the root's class, canonicalized after the run.
	InitialExprClass ir.ID

	Iterations []Iteration

	// RulesTime is the wall time of the whole run loop.
	RulesTime time.Duration

	// StopReason is the value returned by the hook that stopped the run.
	StopReason error
}

// Stop returns the built-in stop reason, if the run ended with one.
func (r RunReport) Stop() (*StopReason, bool) {
	return AsStopReason(r.StopReason)
}

// TotalApplied sums applied counts per rule across every iteration, in
// first-applied order.
func (r RunReport) TotalApplied() AppliedCounts {
	var total AppliedCounts
	for _, it := range r.Iterations {
		it.Applied.Each(func(rule string, count int) {
			for i := 0; i < count; i++ {
				total.Inc(rule)
			}
		})
	}
	return total
}

// ToCanonical converts the report to a map for canonical JSON.
func (r RunReport) ToCanonical() map[string]any {
	iterations := make([]any, len(r.Iterations))
	for i, it := range r.Iterations {
		iterations[i] = it.ToCanonical()
	}
	stop := map[string]any{"kind": "custom", "message": ""}
	if r.StopReason != nil {
		stop["message"] = r.StopReason.Error()
	}
	if sr, ok := r.Stop(); ok {
		stop["kind"] = string(sr.Kind)
		stop["value"] = sr.Value
	}
	return map[string]any{
		"initial_expr":       r.InitialExpr.String(),
		"initial_expr_class": r.InitialExprClass,
		"iterations":         iterations,
		"rules_time_us":      r.RulesTime.Microseconds(),
		"stop":               stop,
	}
}
