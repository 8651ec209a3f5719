// Command eqsat runs equality saturation over CUE rulesets.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/eqsat/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
