package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eqsat/internal/ir"
)

// TestAnalyzeCycles_Empty tests that empty input produces no warnings.
func TestAnalyzeCycles_Empty(t *testing.T) {
	warnings := AnalyzeCycles(nil)
	assert.Empty(t, warnings, "no rules should produce no warnings")
}

// TestAnalyzeCycles_DAG tests that rules which only simplify produce no warnings.
func TestAnalyzeCycles_DAG(t *testing.T) {
	rules := []ir.RuleSpec{
		{Name: "add-zero", LHS: "(+ ?a 0)", RHS: "?a"},
		{Name: "mul-one", LHS: "(* ?a 1)", RHS: "?a"},
		{Name: "double", LHS: "(* ?a 2)", RHS: "(+ ?a ?a)"},
	}

	warnings := AnalyzeCycles(rules)
	assert.Empty(t, warnings, "DAG should produce no cycle warnings")
}

// TestAnalyzeCycles_SelfLoop tests that commutativity is reported at info level.
func TestAnalyzeCycles_SelfLoop(t *testing.T) {
	rules := []ir.RuleSpec{
		{Name: "commute-add", LHS: "(+ ?a ?b)", RHS: "(+ ?b ?a)"},
	}

	warnings := AnalyzeCycles(rules)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"commute-add", "commute-add"}, warnings[0].Path)
	assert.Equal(t, "info", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "Self-enabling rule")
}

// TestAnalyzeCycles_GrowingSelfLoop tests that associativity grows and warns.
func TestAnalyzeCycles_GrowingSelfLoop(t *testing.T) {
	rules := []ir.RuleSpec{
		{Name: "distribute", LHS: "(* ?a (+ ?b ?c))", RHS: "(+ (* ?a ?b) (* ?a ?c))"},
	}

	warnings := AnalyzeCycles(rules)
	require.Len(t, warnings, 1)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "growing: distribute")
}

// TestAnalyzeCycles_TwoRuleCycle tests a cycle across two rules.
func TestAnalyzeCycles_TwoRuleCycle(t *testing.T) {
	rules := []ir.RuleSpec{
		{Name: "to-g", LHS: "(f ?x)", RHS: "(g ?x)"},
		{Name: "to-f", LHS: "(g ?x)", RHS: "(f ?x)"},
	}

	warnings := AnalyzeCycles(rules)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"to-g", "to-f", "to-g"}, warnings[0].Path)
	assert.Equal(t, "info", warnings[0].Level)
	assert.Equal(t, "Rule cycle: to-g → to-f → to-g", warnings[0].Message)
}

// TestAnalyzeCycles_SkipsInvalidRules tests that unparseable rules are ignored.
func TestAnalyzeCycles_SkipsInvalidRules(t *testing.T) {
	rules := []ir.RuleSpec{
		{Name: "broken", LHS: "(f ?x", RHS: "(f ?x)"},
		{Name: "unbound", LHS: "(f ?x)", RHS: "(f ?y)"},
	}

	assert.Empty(t, AnalyzeCycles(rules))
}

// TestAnalyzeCycles_Deterministic tests that output does not vary between calls.
func TestAnalyzeCycles_Deterministic(t *testing.T) {
	rules := []ir.RuleSpec{
		{Name: "a", LHS: "(f ?x)", RHS: "(g ?x)"},
		{Name: "b", LHS: "(g ?x)", RHS: "(h ?x)"},
		{Name: "c", LHS: "(h ?x)", RHS: "(f ?x)"},
		{Name: "d", LHS: "(k ?x)", RHS: "(k (k ?x))"},
	}

	first := AnalyzeCycles(rules)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, AnalyzeCycles(rules))
	}
	require.Len(t, first, 2)
	assert.Equal(t, []string{"a", "b", "c", "a"}, first[0].Path)
	assert.Equal(t, []string{"d", "d"}, first[1].Path)
	assert.Equal(t, "warning", first[1].Level)
}
