package harness

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eqsat/internal/engine"
	"github.com/roach88/eqsat/internal/ir"
)

func intPtr(n int) *int { return &n }

func leftIdentityScenario() *Scenario {
	return &Scenario{
		Name:        "left_identity",
		Description: "left identity",
		Rules: []RuleDef{
			{Name: "commute-add", LHS: "(+ ?a ?b)", RHS: "(+ ?b ?a)"},
			{Name: "add-zero", LHS: "(+ 0 ?a)", RHS: "?a"},
		},
		Term: "(+ 0 x)",
		Assertions: []Assertion{
			{Type: AssertStopReason, Kind: "saturated"},
			{Type: AssertIterationCount, Count: intPtr(2)},
		},
	}
}

func TestRun_MinimalScenario(t *testing.T) {
	result, err := Run(leftIdentityScenario())
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Report.Iterations, 2)
	assert.Equal(t, []string{"commute-add", "add-zero"}, result.Report.Iterations[0].Applied.Names())
	assert.Equal(t, engine.DefaultSchedulerSpec(), result.Scheduler)
	assert.Len(t, result.Rules, 2)
}

func TestRun_LogsThroughDefaultLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	_, err := Run(leftIdentityScenario())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "scenario run complete")
	assert.Contains(t, out, "scenario=left_identity")
	assert.Contains(t, out, "stop_reason=saturated")
}

func TestRun_FailingAssertionsAreReported(t *testing.T) {
	scenario := leftIdentityScenario()
	scenario.Assertions = []Assertion{
		{Type: AssertStopReason, Kind: "node_limit"},
		{Type: AssertNeverApplied, Rule: "add-zero"},
		{Type: AssertIterationCount, Count: intPtr(2)},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "stop kind node_limit")
	assert.Contains(t, result.Errors[1], "applied in iteration 0")
}

func TestRun_StepClockTimings(t *testing.T) {
	result, err := Run(leftIdentityScenario())
	require.NoError(t, err)

	for _, it := range result.Report.Iterations {
		assert.Equal(t, ClockStep, it.SearchTime)
		assert.Equal(t, ClockStep, it.ApplyTime)
		assert.Equal(t, ClockStep, it.RebuildTime)
	}
	// start, the scheduler's first reading, six per step, end
	assert.Equal(t, 14*ClockStep, result.Report.RulesTime)
}

func TestRun_Deterministic(t *testing.T) {
	first, err := Run(leftIdentityScenario())
	require.NoError(t, err)
	second, err := Run(leftIdentityScenario())
	require.NoError(t, err)

	a, err := Snapshot("x", first)
	require.NoError(t, err)
	b, err := Snapshot("x", second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_SchedulerOverrides(t *testing.T) {
	scenario := &Scenario{
		Name:        "assoc",
		Description: "iteration limit from the scenario",
		Rules: []RuleDef{
			{Name: "commute-add", LHS: "(+ ?a ?b)", RHS: "(+ ?b ?a)"},
			{Name: "assoc-add", LHS: "(+ ?a (+ ?b ?c))", RHS: "(+ (+ ?a ?b) ?c)"},
		},
		Term:      "(+ a (+ b (+ c d)))",
		Scheduler: SchedulerConfig{IterationLimit: 1},
		Assertions: []Assertion{
			{Type: AssertStopReason, Kind: "iteration_limit", Value: intPtr(1)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 1, result.Scheduler.IterationLimit)
}

func TestRun_TimeLimitIsDeterministic(t *testing.T) {
	scenario := &Scenario{
		Name:        "timeout",
		Description: "time limit measured on the step clock",
		Rules: []RuleDef{
			{Name: "commute-add", LHS: "(+ ?a ?b)", RHS: "(+ ?b ?a)"},
			{Name: "assoc-add", LHS: "(+ ?a (+ ?b ?c))", RHS: "(+ (+ ?a ?b) ?c)"},
		},
		Term:      "(+ a (+ b (+ c d)))",
		Scheduler: SchedulerConfig{TimeLimitMs: 5},
		Assertions: []Assertion{
			{Type: AssertStopReason, Kind: "timeout"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_RulesFileThenInline(t *testing.T) {
	dir := t.TempDir()
	scenario := &Scenario{
		Name:        "mixed",
		Description: "file rules come first",
		RulesFile:   createRulesFile(t, dir, "rules.cue"),
		Rules:       []RuleDef{{Name: "mul-one", LHS: "(* ?a 1)", RHS: "?a"}},
		Term:        "(* (+ x 0) 1)",
		Assertions: []Assertion{
			{Type: AssertEquivalent, Terms: []string{"(* (+ x 0) 1)", "x"}},
			{Type: AssertAppliedIn, Rule: "add-zero", Iteration: intPtr(0)},
			{Type: AssertAppliedIn, Rule: "mul-one", Iteration: intPtr(0)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []ir.RuleSpec{
		{Name: "add-zero", LHS: "(+ ?a 0)", RHS: "?a"},
		{Name: "mul-one", LHS: "(* ?a 1)", RHS: "?a"},
	}, result.Rules)
}

func TestRun_InvalidRuleset(t *testing.T) {
	scenario := leftIdentityScenario()
	scenario.Rules = append(scenario.Rules, RuleDef{Name: "bad", LHS: "(f ?a)", RHS: "(g ?b)"})

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E124")
}

func TestRun_ExampleScenarios(t *testing.T) {
	paths, err := filepath.Glob("../../testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenarioWithBasePath(path, "../../testdata/rules")
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario should pass: errors=%v", result.Errors)
		})
	}
}
