package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/eqsat/internal/egraph"
	"github.com/roach88/eqsat/internal/engine"
	"github.com/roach88/eqsat/internal/rewrite"
	"github.com/roach88/eqsat/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string   `json:"run_id"`
	Term          string   `json:"term"`
	Iterations    int      `json:"iterations"`
	Stop          string   `json:"stop"`
	Skipped       bool     `json:"skipped,omitempty"`
	Deterministic bool     `json:"deterministic"`
	Mismatches    []string `json:"mismatches,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run stored runs and verify determinism",
		Long: `Re-run stored runs from their stored term, rules and scheduler limits,
and check that each re-run stops the same way with the same e-graph sizes
and applied rules in every iteration. Timings are not compared.

Runs that stopped on their time limit or were cancelled depend on the
wall clock and are skipped.

Exit codes:
  0 - All runs replayed identically
  1 - At least one run diverged
  2 - Command error (database not found, etc.)

Examples:
  eqsat replay --db ./eqsat.db
  eqsat replay --db ./eqsat.db --run 0190b2f4-...
  eqsat replay --db ./eqsat.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runIDs []string
	if opts.RunID != "" {
		runIDs = []string{opts.RunID}
	} else {
		listed, err := st.ListRuns(ctx, "")
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		for _, r := range listed {
			runIDs = append(runIDs, r.ID)
		}
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runIDs)),
		TotalRuns:        len(runIDs),
		AllDeterministic: true,
	}

	for _, id := range runIDs {
		stored, err := st.ReadRun(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", id))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read run %s", id), err)
		}

		runResult, err := replayRun(stored)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", id), err)
		}
		result.Runs = append(result.Runs, runResult)
		if !runResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replayRun re-runs stored without a time limit and diffs the two runs.
func replayRun(stored store.Run) (ReplayRunResult, error) {
	result := ReplayRunResult{
		RunID:         stored.ID,
		Term:          stored.Term,
		Iterations:    len(stored.Iterations),
		Stop:          stored.StopMessage,
		Deterministic: true,
	}

	switch engine.StopKind(stored.StopKind) {
	case engine.StopTimeout, engine.StopCancelled:
		result.Skipped = true
		return result, nil
	}

	term, err := stored.ParseTerm()
	if err != nil {
		return result, err
	}
	rws, err := rewrite.Compile(stored.Rules)
	if err != nil {
		return result, err
	}

	spec := stored.Scheduler
	spec.TimeLimitMs = 0
	sched := engine.NewSimpleScheduler[*egraph.EGraph]().WithSpec(spec)
	_, report := engine.RunExpr[*egraph.EGraph](sched, egraph.FromTerm, term, rewrite.Rules(rws))

	replayed, err := store.NewRun(stored.ID, report, stored.Rules, stored.Scheduler)
	if err != nil {
		return result, err
	}
	for _, m := range store.Diff(stored, replayed) {
		result.Mismatches = append(result.Mismatches, m.String())
	}
	result.Deterministic = len(result.Mismatches) == 0
	return result, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	if err := writeResponse(cmd.OutOrStdout(), response); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, r := range result.Runs {
		status := "✓"
		switch {
		case r.Skipped:
			status = "-"
		case !r.Deterministic:
			status = "✗"
		}

		fmt.Fprintf(w, "%s Run: %s\n", status, r.RunID)
		if verbose {
			fmt.Fprintf(w, "  Term: %s\n", r.Term)
		}
		fmt.Fprintf(w, "  %d iteration(s), %s\n", r.Iterations, r.Stop)
		if r.Skipped {
			fmt.Fprintln(w, "  Skipped: stop depends on the wall clock")
		}
		for _, m := range r.Mismatches {
			fmt.Fprintf(w, "  %s\n", m)
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
