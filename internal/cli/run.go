package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/eqsat/internal/compiler"
	"github.com/roach88/eqsat/internal/egraph"
	"github.com/roach88/eqsat/internal/engine"
	"github.com/roach88/eqsat/internal/ir"
	"github.com/roach88/eqsat/internal/metrics"
	"github.com/roach88/eqsat/internal/rewrite"
	"github.com/roach88/eqsat/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Expr     string
	Database string
	Metrics  string

	// Flag values override the ruleset's scheduler block; zero keeps it.
	IterLimit         int
	NodeLimit         int
	InitialMatchLimit int
	BanLength         int
	TimeLimit         time.Duration

	// RunIDs overrides the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator

	// Clock overrides the clock used for timings and the time limit
	// (for testing). If nil, the system clock is used.
	Clock engine.Clock
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <rules-dir>",
		Short: "Saturate a term with a ruleset",
		Long: `Build an e-graph from a term and run the ruleset on it until it
saturates or a scheduler limit is reached.

Limits come from the ruleset's scheduler block; flags override them.
With --db the run is stored for trace and replay.

Example:
  eqsat run ./rules --expr "(+ 0 x)"
  eqsat run ./rules --expr "(* (+ a b) 1)" --db ./eqsat.db --iter-limit 5
  eqsat run ./rules --expr "(+ a (+ b c))" --time-limit 2s --metrics run.prom`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSaturation(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Expr, "expr", "", "start term as an S-expression (required)")
	_ = cmd.MarkFlagRequired("expr")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database to store the run in")
	cmd.Flags().StringVar(&opts.Metrics, "metrics", "", "write Prometheus metrics to this file")
	// Limits must not be negative; zero keeps the ruleset's value.
	cmd.Flags().IntVar(&opts.IterLimit, "iter-limit", 0, "maximum number of steps")
	cmd.Flags().IntVar(&opts.NodeLimit, "node-limit", 0, "stop once the e-graph holds more nodes than this")
	cmd.Flags().IntVar(&opts.InitialMatchLimit, "match-limit", 0, "matches per search before a rule is banned")
	cmd.Flags().IntVar(&opts.BanLength, "ban-length", 0, "steps a first ban lasts")
	cmd.Flags().DurationVar(&opts.TimeLimit, "time-limit", 0, "wall-clock budget for the run (0 = none)")

	return cmd
}

// flagSpec returns the scheduler limits set on the command line.
func (o *RunOptions) flagSpec() ir.SchedulerSpec {
	return ir.SchedulerSpec{
		IterationLimit:    o.IterLimit,
		NodeLimit:         o.NodeLimit,
		InitialMatchLimit: o.InitialMatchLimit,
		BanLength:         o.BanLength,
		TimeLimitMs:       o.TimeLimit.Milliseconds(),
	}
}

// limitFlags names the flag behind each scheduler field.
var limitFlags = map[string]string{
	"scheduler.iteration_limit":     "--iter-limit",
	"scheduler.node_limit":          "--node-limit",
	"scheduler.initial_match_limit": "--match-limit",
	"scheduler.ban_length":          "--ban-length",
	"scheduler.time_limit_ms":       "--time-limit",
}

func runSaturation(opts *RunOptions, rulesDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if errs := compiler.ValidateScheduler(opts.flagSpec()); len(errs) > 0 {
		msg := limitFlags[errs[0].Field] + " " + errs[0].Message
		_ = formatter.Error(errs[0].Code, msg, nil)
		return WrapExitError(ExitCommandError, "invalid scheduler flag", errs[0])
	}

	rs, err := loadValidRuleset(rulesDir)
	if err != nil {
		return err
	}
	rws, err := rewrite.Compile(rs.Rules)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile rules", err)
	}

	term, err := ir.ParseTerm(opts.Expr)
	if err != nil {
		_ = formatter.Error(ErrCodeBadTerm, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --expr", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := engine.NewSimpleScheduler[*egraph.EGraph]().
		WithSpec(rs.Scheduler).
		WithSpec(opts.flagSpec()).
		WithContext(ctx)
	var runOpts []engine.Option
	if opts.Clock != nil {
		sched = sched.WithClock(opts.Clock)
		runOpts = append(runOpts, engine.WithClock(opts.Clock))
	}

	var runner engine.Runner[*egraph.EGraph] = sched
	var rec *metrics.Recorder
	var reg *prometheus.Registry
	if opts.Metrics != "" {
		reg = prometheus.NewRegistry()
		if rec, err = metrics.New(reg); err != nil {
			return WrapExitError(ExitCommandError, "failed to set up metrics", err)
		}
		runner = metrics.Instrument[*egraph.EGraph](sched, rec)
	}

	slog.Info("run starting", "rules", len(rws), "term", term.String(), "rules_dir", rulesDir)
	_, report := engine.RunExpr[*egraph.EGraph](runner, egraph.FromTerm, term, rewrite.Rules(rws), runOpts...)

	if rec != nil {
		rec.ObserveStop(report.StopReason)
		rec.ObserveRunTime(report.RulesTime)
		rec.ObserveStats(sched.Stats())
		if err := prometheus.WriteToTextfile(opts.Metrics, reg); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
	}

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = engine.UUIDv7Generator{}
	}
	run, err := store.NewRun(runIDs.Generate(), report, rs.Rules, sched.Spec())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}

	if opts.Database != "" {
		if err := saveRun(ctx, opts.Database, run); err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to store run", err)
		}
		formatter.VerboseLog("Stored run %s in %s", run.ID, opts.Database)
	}

	view := newRunView(run)
	if opts.Format == "json" {
		return writeResponse(formatter.Writer, CLIResponse{Status: "ok", Data: view, RunID: run.ID})
	}
	writeRunText(formatter.Writer, view, opts.Verbose)
	return nil
}

// loadValidRuleset loads rulesDir and rejects rulesets with load or
// validation errors.
func loadValidRuleset(rulesDir string) (*compiler.Ruleset, error) {
	loadResult, loadErrors := LoadRuleset(rulesDir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		return nil, WrapExitError(ExitCommandError, "failed to load rules", firstLoadError(loadErrors))
	}
	if errs := compiler.Validate(loadResult.Ruleset); len(errs) > 0 {
		return nil, WrapExitError(ExitCommandError, "invalid ruleset", errs[0])
	}
	return loadResult.Ruleset, nil
}

func saveRun(ctx context.Context, path string, run store.Run) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	// A cancelled run is still stored.
	return st.WriteRun(context.WithoutCancel(ctx), run)
}
