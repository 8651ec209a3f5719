package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eqsat/internal/engine"
	"github.com/roach88/eqsat/internal/ir"
)

const scheduledRules = identityRules + `
scheduler: {
	iteration_limit: 5
	time_limit_ms:   250
}
`

func TestCompile_TextSummary(t *testing.T) {
	dir := writeRulesDir(t, scheduledRules)

	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled 2 rule(s)")
	assert.Contains(t, out, "commute-add: (+ ?a ?b) → (+ ?b ?a)")
	assert.Contains(t, out, "iteration_limit=5 node_limit=10000 initial_match_limit=1000 ban_length=5 time_limit_ms=250")
	assert.Contains(t, out, "Ruleset hash: ")
}

func TestCompile_WritesCanonicalJSON(t *testing.T) {
	dir := writeRulesDir(t, scheduledRules)
	outFile := filepath.Join(t.TempDir(), "ruleset.json")

	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), dir, "-o", outFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote canonical JSON to "+outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	rules := []ir.RuleSpec{
		{Name: "commute-add", LHS: "(+ ?a ?b)", RHS: "(+ ?b ?a)"},
		{Name: "add-zero", LHS: "(+ 0 ?a)", RHS: "?a"},
	}
	hash, err := ir.RulesetHash(rules)
	require.NoError(t, err)

	want := `{"rules":[{"lhs":"(+ ?a ?b)","name":"commute-add","rhs":"(+ ?b ?a)"},{"lhs":"(+ 0 ?a)","name":"add-zero","rhs":"?a"}],` +
		`"ruleset_hash":"` + hash + `",` +
		`"scheduler":{"ban_length":5,"initial_match_limit":1000,"iteration_limit":5,"node_limit":10000,"time_limit_ms":250}}`
	assert.Equal(t, want, string(data))
}

func TestCompile_Deterministic(t *testing.T) {
	dir := writeRulesDir(t, scheduledRules)
	tmp := t.TempDir()
	first, second := filepath.Join(tmp, "a.json"), filepath.Join(tmp, "b.json")

	_, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), dir, "-o", first)
	require.NoError(t, err)
	_, err = execute(t, NewCompileCommand(&RootOptions{Format: "text"}), dir, "-o", second)
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompile_JSON(t *testing.T) {
	dir := writeRulesDir(t, identityRules)

	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "json"}), dir)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Rules, 2)
	assert.Equal(t, "commute-add", resp.Data.Rules[0].Name)
	assert.Equal(t, engine.DefaultSchedulerSpec(), resp.Data.Scheduler)
}

func TestCompile_ValidationErrorsFail(t *testing.T) {
	dir := writeRulesDir(t, `package rules

rule: bad: {
	lhs: "(f ?a)"
	rhs: "(g ?b)"
}
`)

	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, "E124")
}

func TestCompile_UnknownSchedulerField(t *testing.T) {
	dir := writeRulesDir(t, identityRules+`
scheduler: fuel: 3
`)

	out, err := execute(t, NewCompileCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSchedulerField, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, `unknown scheduler field "fuel"`)
}
