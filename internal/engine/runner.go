package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/eqsat/internal/ir"
)

// LevelTrace is below slog.LevelDebug. At this level every step logs a full
// graph dump for graphs that provide a Dump method.
const LevelTrace = slog.LevelDebug - 4

// Graph is what the runner needs from an equivalence graph.
//
// Rules do the real work through their own, richer view of the graph; the
// runner itself only samples sizes, canonicalizes the root and rebuilds.
type Graph interface {
	// Size is the total number of e-nodes.
	Size() int
	// ClassCount is the number of equivalence classes.
	ClassCount() int
	// Find returns the canonical id of a class. Find(Find(x)) == Find(x).
	Find(id ir.ID) ir.ID
	// Rebuild restores the graph's invariants after a batch of edits.
	Rebuild() int
}

// Rule is a named rewrite that can be searched and applied separately.
type Rule[G Graph] interface {
	Name() string
	Search(g G) []ir.SearchMatches
	// Apply returns the ids it changed; empty means nothing changed.
	Apply(g G, matches []ir.SearchMatches) []ir.ID
}

// Runner is the set of hooks that drive a run.
//
// A non-nil error from PreStep, DuringStep or PostStep stops the run and
// becomes its stop reason. Embed Hooks to inherit defaults for the hooks
// you do not override.
type Runner[G Graph] interface {
	// PreStep runs before each step.
	PreStep(g G) error
	// DuringStep runs after each rule's search and after each rule's apply.
	DuringStep(g G) error
	// PostStep runs after each step with that step's record.
	PostStep(it *Iteration, g G) error
	// SearchRewrite searches one rule. Returning no matches skips its apply.
	SearchRewrite(g G, rule Rule[G]) []ir.SearchMatches
	// ApplyRewrite applies one rule and returns how many ids changed.
	ApplyRewrite(g G, rule Rule[G], matches []ir.SearchMatches) int
}

// Stepper is implemented by runners that replace the whole step.
// Run calls it instead of Step.
type Stepper[G Graph] interface {
	Step(g G, rules []Rule[G]) (Iteration, error)
}

// Hooks provides the default hook behavior: never stop, search and apply
// by delegating to the rule.
type Hooks[G Graph] struct{}

// PreStep never stops.
func (Hooks[G]) PreStep(G) error { return nil }

// DuringStep never stops.
func (Hooks[G]) DuringStep(G) error { return nil }

// PostStep never stops.
func (Hooks[G]) PostStep(*Iteration, G) error { return nil }

// SearchRewrite returns rule.Search(g).
func (Hooks[G]) SearchRewrite(g G, rule Rule[G]) []ir.SearchMatches {
	return rule.Search(g)
}

// ApplyRewrite returns the number of ids rule.Apply reports as changed.
func (Hooks[G]) ApplyRewrite(g G, rule Rule[G], matches []ir.SearchMatches) int {
	return len(rule.Apply(g, matches))
}

// Step performs one search/apply/rebuild step and returns its record.
//
// Rules are searched in order against the graph as it stood at the start of
// the step, with DuringStep after each search. Rules with at least one match
// are then applied in order, with DuringStep after each apply. Finally the
// graph is rebuilt once.
//
// If DuringStep stops, Step returns immediately with that error. Edits made
// so far are kept and no Iteration is produced.
func Step[G Graph](r Runner[G], g G, rules []Rule[G], opts ...Option) (Iteration, error) {
	o := buildOptions(opts)
	return step(r, g, rules, o.clock)
}

func step[G Graph](r Runner[G], g G, rules []Rule[G], clock Clock) (Iteration, error) {
	it := Iteration{
		EGraphNodes:   g.Size(),
		EGraphClasses: g.ClassCount(),
	}
	if d, ok := any(g).(interface{ Dump() string }); ok && slog.Default().Enabled(context.Background(), LevelTrace) {
		slog.Log(context.Background(), LevelTrace, "egraph", "dump", d.Dump())
	}

	start := clock.Now()
	matches := make([][]ir.SearchMatches, len(rules))
	for i, rule := range rules {
		matches[i] = r.SearchRewrite(g, rule)
		if err := r.DuringStep(g); err != nil {
			return Iteration{}, err
		}
	}
	it.SearchTime = since(clock, start)
	slog.Info("search complete", "search_time", it.SearchTime)

	start = clock.Now()
	for i, rule := range rules {
		total := ir.TotalMatches(matches[i])
		if total == 0 {
			continue
		}
		slog.Debug("applying rule", "rule", rule.Name(), "matches", total)

		if changed := r.ApplyRewrite(g, rule, matches[i]); changed > 0 {
			it.Applied.Inc(rule.Name())
			slog.Debug("applied rule", "rule", rule.Name(), "changed", changed)
		}
		if err := r.DuringStep(g); err != nil {
			return Iteration{}, err
		}
	}
	it.ApplyTime = since(clock, start)
	slog.Info("apply complete", "apply_time", it.ApplyTime)

	start = clock.Now()
	g.Rebuild()
	it.RebuildTime = since(clock, start)
	slog.Info("rebuild complete",
		"rebuild_time", it.RebuildTime,
		"nodes", g.Size(),
		"classes", g.ClassCount(),
	)

	return it, nil
}

// Run steps until a hook stops and returns every completed Iteration with
// the stop value.
//
// Each round is PreStep, then the step (Step, or the runner's own Stepper),
// then PostStep. A step's record is kept even when its PostStep stops the
// run. Run has no exit other than a stop: a runner whose hooks never stop
// loops forever.
func Run[G Graph](r Runner[G], g G, rules []Rule[G], opts ...Option) ([]Iteration, error) {
	o := buildOptions(opts)
	stepper, custom := r.(Stepper[G])

	var iterations []Iteration
	for {
		if err := r.PreStep(g); err != nil {
			return stopped(iterations, err)
		}

		var it Iteration
		var err error
		if custom {
			it, err = stepper.Step(g, rules)
		} else {
			it, err = step(r, g, rules, o.clock)
		}
		if err != nil {
			return stopped(iterations, err)
		}
		iterations = append(iterations, it)

		if err := r.PostStep(&iterations[len(iterations)-1], g); err != nil {
			return stopped(iterations, err)
		}
	}
}

func stopped(iterations []Iteration, reason error) ([]Iteration, error) {
	slog.Info("stopping", "reason", reason.Error(), "iterations", len(iterations))
	return iterations, reason
}

// RunExpr builds a graph from term, runs rules on it and returns the graph
// with a report.
//
// build must return the new graph and the class of term's root. The root is
// canonicalized with Find after the run, since unions may have renamed it.
func RunExpr[G Graph](
	r Runner[G],
	build func(ir.Term) (G, ir.ID),
	term ir.Term,
	rules []Rule[G],
	opts ...Option,
) (G, RunReport) {
	o := buildOptions(opts)
	g, root := build(term)

	start := o.clock.Now()
	iterations, reason := Run(r, g, rules, opts...)
	rulesTime := since(o.clock, start)

	report := RunReport{
		InitialExpr:      term,
		InitialExprClass: g.Find(root),
		Iterations:       iterations,
		RulesTime:        rulesTime,
		StopReason:       reason,
	}
	slog.Info("run complete",
		"iterations", len(iterations),
		"stop_reason", reason.Error(),
		"rules_time", rulesTime,
	)
	return g, report
}
