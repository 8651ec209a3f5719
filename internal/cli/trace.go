package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/eqsat/internal/ir"
	"github.com/roach88/eqsat/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - one run with its iterations
	Term     string // optional - only runs of this term
}

// TraceResult holds the runs a trace printed.
type TraceResult struct {
	Runs []RunView `json:"runs"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print stored run reports",
		Long: `Print runs stored by "eqsat run --db".

Without --run, lists every stored run (optionally only runs of one term)
with its stop reason. With --run, prints that run's iterations: e-graph
size and applied rules per step, and phase timings with --verbose.

Examples:
  eqsat trace --db ./eqsat.db
  eqsat trace --db ./eqsat.db --term "(+ 0 x)"
  eqsat trace --db ./eqsat.db --run 0190b2f4-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to print in full")
	cmd.Flags().StringVar(&opts.Term, "term", "", "only list runs of this term")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runs []store.Run
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		runs = []store.Run{run}
	} else {
		termHash := ""
		if opts.Term != "" {
			term, err := ir.ParseTerm(opts.Term)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --term", err)
			}
			if termHash, err = ir.TermHash(term); err != nil {
				return WrapExitError(ExitCommandError, "invalid --term", err)
			}
		}
		if runs, err = st.ListRuns(ctx, termHash); err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	result := TraceResult{Runs: make([]RunView, len(runs))}
	for i, r := range runs {
		result.Runs[i] = newRunView(r)
	}

	if opts.Format == "json" {
		return writeResponse(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}
	return outputTraceText(cmd, result, opts.RunID != "", opts.Verbose)
}

// outputTraceText prints one full run, or one line per listed run.
func outputTraceText(cmd *cobra.Command, result TraceResult, full, verbose bool) error {
	w := cmd.OutOrStdout()

	if full {
		writeRunText(w, result.Runs[0], verbose)
		return nil
	}

	if len(result.Runs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}
	for _, r := range result.Runs {
		fmt.Fprintf(w, "%s  %s  %s\n", r.ID, r.Stop.Message, r.Term)
	}
	fmt.Fprintf(w, "\n%d run(s)\n", len(result.Runs))
	return nil
}
