package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eqsat/internal/ir"
)

// writeScenario writes content to dir/test.yaml and returns its path.
func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// createRulesFile writes a minimal CUE ruleset into dir.
func createRulesFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := `rule: "add-zero": { lhs: "(+ ?a 0)", rhs: "?a" }`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalScenario = `
name: test_scenario
description: "Test scenario for validation"
rules:
  - name: add-zero
    lhs: "(+ ?a 0)"
    rhs: "?a"
term: "(+ x 0)"
scheduler:
  iteration_limit: 5
  ban_length: 2
assertions:
  - type: stop_reason
    kind: saturated
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), minimalScenario)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, []RuleDef{{Name: "add-zero", LHS: "(+ ?a 0)", RHS: "?a"}}, scenario.Rules)
	assert.Equal(t, "(+ x 0)", scenario.Term)
	assert.Equal(t, ir.SchedulerSpec{IterationLimit: 5, BanLength: 2}, scenario.Scheduler.Spec())
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertStopReason, scenario.Assertions[0].Type)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "name: [unclosed")

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_UnknownFieldsRejected(t *testing.T) {
	path := writeScenario(t, t.TempDir(), minimalScenario+"assertion: []\n")

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertion")
}

func TestLoadScenario_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name: "missing name",
			content: `
description: "d"
rules: [{name: r, lhs: "(f ?x)", rhs: "?x"}]
term: "(f a)"
assertions: [{type: stop_reason, kind: saturated}]
`,
			errMsg: "name is required",
		},
		{
			name: "missing description",
			content: `
name: n
rules: [{name: r, lhs: "(f ?x)", rhs: "?x"}]
term: "(f a)"
assertions: [{type: stop_reason, kind: saturated}]
`,
			errMsg: "description is required",
		},
		{
			name: "missing rules",
			content: `
name: n
description: "d"
term: "(f a)"
assertions: [{type: stop_reason, kind: saturated}]
`,
			errMsg: "rules or rules_file is required",
		},
		{
			name: "missing term",
			content: `
name: n
description: "d"
rules: [{name: r, lhs: "(f ?x)", rhs: "?x"}]
assertions: [{type: stop_reason, kind: saturated}]
`,
			errMsg: "term is required",
		},
		{
			name: "unparseable term",
			content: `
name: n
description: "d"
rules: [{name: r, lhs: "(f ?x)", rhs: "?x"}]
term: "(f a"
assertions: [{type: stop_reason, kind: saturated}]
`,
			errMsg: "term:",
		},
		{
			name: "missing assertions",
			content: `
name: n
description: "d"
rules: [{name: r, lhs: "(f ?x)", rhs: "?x"}]
term: "(f a)"
`,
			errMsg: "assertions list is required",
		},
		{
			name: "rule missing rhs",
			content: `
name: n
description: "d"
rules: [{name: r, lhs: "(f ?x)"}]
term: "(f a)"
assertions: [{type: stop_reason, kind: saturated}]
`,
			errMsg: "rules[0]: lhs and rhs are required",
		},
		{
			name: "missing rules file",
			content: `
name: n
description: "d"
rules_file: nope.cue
term: "(f a)"
assertions: [{type: stop_reason, kind: saturated}]
`,
			errMsg: "rules file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadScenario_AssertionTypes(t *testing.T) {
	tests := []struct {
		name      string
		assertion string
		errMsg    string // empty means valid
	}{
		{"stop_reason", "{type: stop_reason, kind: node_limit, value: 51}", ""},
		{"stop_reason without kind", "{type: stop_reason}", "kind is required"},
		{"iteration_count", "{type: iteration_count, count: 3}", ""},
		{"iteration_count zero", "{type: iteration_count, count: 0}", ""},
		{"iteration_count missing count", "{type: iteration_count}", "count is required"},
		{"max_iterations negative", "{type: max_iterations, count: -1}", "count must be non-negative"},
		{"applied_in", "{type: applied_in, rule: r, iteration: 0}", ""},
		{"applied_in missing iteration", "{type: applied_in, rule: r}", "non-negative iteration is required"},
		{"never_applied missing rule", "{type: never_applied}", "rule is required"},
		{"equivalent", `{type: equivalent, terms: ["(f a)", "a"]}`, ""},
		{"equivalent one term", `{type: equivalent, terms: ["a"]}`, "at least two terms"},
		{"equivalent bad term", `{type: equivalent, terms: ["a", "(f"]}`, "terms[1]"},
		{"unknown", "{type: trace_contains}", `unknown assertion type "trace_contains"`},
		{"missing type", "{rule: r}", "type is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := `
name: n
description: "d"
rules: [{name: r, lhs: "(f ?x)", rhs: "?x"}]
term: "(f a)"
assertions:
  - ` + tt.assertion + "\n"
			path := writeScenario(t, t.TempDir(), content)

			_, err := LoadScenario(path)
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadScenario_RulesFileRelativeToScenario(t *testing.T) {
	dir := t.TempDir()
	rulesPath := createRulesFile(t, dir, "rules.cue")
	path := writeScenario(t, dir, `
name: n
description: "d"
rules_file: rules.cue
term: "(+ x 0)"
assertions: [{type: stop_reason, kind: saturated}]
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, rulesPath, scenario.RulesFile)
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	scenarioDir := t.TempDir()
	rulesDir := t.TempDir()
	rulesPath := createRulesFile(t, rulesDir, "rules.cue")
	path := writeScenario(t, scenarioDir, `
name: n
description: "d"
rules_file: rules.cue
term: "(+ x 0)"
assertions: [{type: stop_reason, kind: saturated}]
`)

	scenario, err := LoadScenarioWithBasePath(path, rulesDir)
	require.NoError(t, err)
	assert.Equal(t, rulesPath, scenario.RulesFile)
}

func TestLoadScenarioWithBasePath_AbsoluteRulesPath(t *testing.T) {
	rulesPath := createRulesFile(t, t.TempDir(), "rules.cue")
	path := writeScenario(t, t.TempDir(), `
name: n
description: "d"
rules_file: `+rulesPath+`
term: "(+ x 0)"
assertions: [{type: stop_reason, kind: saturated}]
`)

	scenario, err := LoadScenarioWithBasePath(path, "/somewhere/else")
	require.NoError(t, err)
	assert.Equal(t, rulesPath, scenario.RulesFile)
}

func TestLoadExampleScenarios(t *testing.T) {
	paths, err := filepath.Glob("../../testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadScenarioWithBasePath(path, "../../testdata/rules")
			require.NoError(t, err)
		})
	}
}
