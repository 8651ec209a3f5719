package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// identityRules rewrite (+ 0 x) to x in two steps.
const identityRules = `package rules

rule: "commute-add": {
	lhs: "(+ ?a ?b)"
	rhs: "(+ ?b ?a)"
}

rule: "add-zero": {
	lhs: "(+ 0 ?a)"
	rhs: "?a"
}
`

// writeRulesDir creates a rules directory holding one rules.cue file.
func writeRulesDir(t *testing.T, src string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "rules")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules.cue"), []byte(src), 0644))
	return dir
}

// execute runs cmd with args and returns its stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
