package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_LeftIdentity(t *testing.T) {
	// Regenerate with:
	//   go test ./internal/harness -run TestRunWithGolden_LeftIdentity -update
	err := RunWithGolden(t, leftIdentityScenario())
	require.NoError(t, err)
}

func TestRunWithGolden_ExampleScenario(t *testing.T) {
	scenario, err := LoadScenarioWithBasePath("../../testdata/scenarios/left_identity.yaml", "../../testdata/rules")
	require.NoError(t, err)

	// The YAML scenario and the in-code one share a golden file.
	require.NoError(t, RunWithGolden(t, scenario))
}

func TestRunWithGolden_InvalidScenario(t *testing.T) {
	scenario := leftIdentityScenario()
	scenario.Term = "(+ 0"

	err := RunWithGolden(t, scenario)
	assert.Error(t, err)
}

func TestSnapshot_ContainsScenarioName(t *testing.T) {
	result, err := Run(leftIdentityScenario())
	require.NoError(t, err)

	data, err := Snapshot("named", result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario":"named"`)
	assert.Contains(t, string(data), `"stop":{"kind":"saturated"`)
}
