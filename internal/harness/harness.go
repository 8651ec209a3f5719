package harness

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/eqsat/internal/compiler"
	"github.com/roach88/eqsat/internal/egraph"
	"github.com/roach88/eqsat/internal/engine"
	"github.com/roach88/eqsat/internal/ir"
	"github.com/roach88/eqsat/internal/rewrite"
	"github.com/roach88/eqsat/internal/testutil"
)

// ClockStep is how far the harness clock advances per reading. Every timed
// phase of a harness run therefore measures exactly ClockStep.
const ClockStep = time.Millisecond

// Harness is the scenario execution engine.
// It runs scenarios against a step clock so reports are reproducible.
type Harness struct {
	clock *testutil.StepClock
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Resolve rules (rules_file, then inline) and scheduler limits
// 2. Validate and compile the rules
// 3. Run the scheduler on the start term to a stop
// 4. Evaluate assertions against the report and final graph
//
// An error means the scenario could not run; failed assertions are reported
// through Result.Pass and Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	h := &Harness{
		clock: testutil.NewStepClock(ClockStep),
	}
	return h.run(scenario)
}

func (h *Harness) run(scenario *Scenario) (*Result, error) {
	rs, err := resolveRuleset(scenario)
	if err != nil {
		return nil, err
	}

	if errs := compiler.Validate(rs); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid ruleset: %s", strings.Join(msgs, "; "))
	}

	rws, err := rewrite.Compile(rs.Rules)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rules: %w", err)
	}

	term, err := ir.ParseTerm(scenario.Term)
	if err != nil {
		return nil, fmt.Errorf("failed to parse term: %w", err)
	}

	sched := engine.NewSimpleScheduler[*egraph.EGraph]().
		WithSpec(rs.Scheduler).
		WithClock(h.clock)

	g, report := engine.RunExpr[*egraph.EGraph](sched, egraph.FromTerm, term, rewrite.Rules(rws),
		engine.WithClock(h.clock))

	slog.Debug("scenario run complete",
		"scenario", scenario.Name,
		"iterations", len(report.Iterations),
		"stop_reason", report.StopReason.Error(),
	)

	// A mid-step stop leaves unions pending; equivalence queries need a
	// rebuilt graph. The report was sampled before this.
	if !g.IsClean() {
		g.Rebuild()
	}

	result := NewResult()
	result.Report = report
	result.Graph = g
	result.Rules = rs.Rules
	result.Scheduler = sched.Spec()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// resolveRuleset merges the scenario's CUE file and inline rules.
func resolveRuleset(scenario *Scenario) (*compiler.Ruleset, error) {
	rs := &compiler.Ruleset{Rules: []ir.RuleSpec{}}
	if scenario.RulesFile != "" {
		loaded, err := LoadRulesFile(scenario.RulesFile)
		if err != nil {
			return nil, err
		}
		rs = loaded
	}
	for _, r := range scenario.Rules {
		rs.Rules = append(rs.Rules, r.Spec())
	}
	rs.Scheduler = scenario.Scheduler.Spec().Merge(rs.Scheduler)
	return rs, nil
}

// LoadRulesFile compiles a single CUE ruleset file.
func LoadRulesFile(path string) (*compiler.Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	v := cuecontext.New().CompileBytes(data, cue.Filename(path))
	rs, err := compiler.CompileRuleset(v)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", path, err)
	}
	return rs, nil
}
