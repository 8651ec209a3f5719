package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eqsat/internal/ir"
)

func TestCompileRuleBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		rule: "add-zero": {
			lhs: "(+ ?a 0)"
			rhs: "?a"
		}
	`)

	require.NoError(t, v.Err())
	spec, err := CompileRule(v.LookupPath(cue.ParsePath(`rule."add-zero"`)))

	require.NoError(t, err)
	assert.Equal(t, "add-zero", spec.Name)
	assert.Equal(t, "(+ ?a 0)", spec.LHS)
	assert.Equal(t, "?a", spec.RHS)
}

func TestCompileRuleUnquotedLabel(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`rule: commute: { lhs: "(* ?a ?b)", rhs: "(* ?b ?a)" }`)

	require.NoError(t, v.Err())
	spec, err := CompileRule(v.LookupPath(cue.ParsePath("rule.commute")))

	require.NoError(t, err)
	assert.Equal(t, "commute", spec.Name)
}

func TestCompileRuleMissingRHS(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`rule: r: { lhs: "(f ?x)" }`)

	require.NoError(t, v.Err())
	_, err := CompileRule(v.LookupPath(cue.ParsePath("rule.r")))

	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "rhs", ce.Field)
	assert.Contains(t, err.Error(), "rhs is required")
}

func TestCompileRuleUnknownField(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`rule: r: { lhs: "(f ?x)", rhs: "?x", when: "always" }`)

	require.NoError(t, v.Err())
	_, err := CompileRule(v.LookupPath(cue.ParsePath("rule.r")))

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown rule field "when"`)
}

func TestCompileRuleNonStringPattern(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`rule: r: { lhs: 42, rhs: "?x" }`)

	require.NoError(t, v.Err())
	_, err := CompileRule(v.LookupPath(cue.ParsePath("rule.r")))

	require.Error(t, err)
}

func TestCompileRulesetPreservesOrder(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		rule: "mul-one":     { lhs: "(* ?a 1)", rhs: "?a" }
		rule: "commute-add": { lhs: "(+ ?a ?b)", rhs: "(+ ?b ?a)" }
		rule: "add-zero":    { lhs: "(+ ?a 0)", rhs: "?a" }
	`)

	require.NoError(t, v.Err())
	rs, err := CompileRuleset(v)

	require.NoError(t, err)
	names := make([]string, len(rs.Rules))
	for i, r := range rs.Rules {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"mul-one", "commute-add", "add-zero"}, names)
	assert.Equal(t, ir.SchedulerSpec{}, rs.Scheduler)
}

func TestCompileRulesetWithScheduler(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		rule: r: { lhs: "(f ?x)", rhs: "(g ?x)" }
		scheduler: {
			iteration_limit: 12
			ban_length:      3
		}
	`)

	require.NoError(t, v.Err())
	rs, err := CompileRuleset(v)

	require.NoError(t, err)
	require.Len(t, rs.Rules, 1)
	assert.Equal(t, ir.SchedulerSpec{IterationLimit: 12, BanLength: 3}, rs.Scheduler)
}

func TestCompileRulesetEmpty(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`scheduler: { node_limit: 50 }`)

	require.NoError(t, v.Err())
	rs, err := CompileRuleset(v)

	require.NoError(t, err)
	assert.Empty(t, rs.Rules)
	assert.Equal(t, 50, rs.Scheduler.NodeLimit)
}

func TestCompileRulesetPropagatesRuleError(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		rule: ok:  { lhs: "(f ?x)", rhs: "?x" }
		rule: bad: { lhs: "(f ?x)" }
	`)

	require.NoError(t, v.Err())
	_, err := CompileRuleset(v)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rhs is required")
}

func TestCompileRulesetCUEConflict(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		rule: r: { lhs: "(f ?x)", rhs: "?x" }
		rule: r: { lhs: "(g ?x)" }
	`)

	_, err := CompileRuleset(v)
	require.Error(t, err)
}
