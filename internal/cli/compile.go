package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/eqsat/internal/compiler"
	"github.com/roach88/eqsat/internal/engine"
	"github.com/roach88/eqsat/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is a compiled ruleset with its content hash.
type CompilationResult struct {
	RulesetHash string           `json:"ruleset_hash"`
	Rules       []ir.RuleSpec    `json:"rules"`
	Scheduler   ir.SchedulerSpec `json:"scheduler"`
}

// ToCanonical converts the result to a map for canonical JSON.
func (r CompilationResult) ToCanonical() map[string]any {
	return map[string]any{
		"ruleset_hash": r.RulesetHash,
		"rules":        ir.RulesToCanonical(r.Rules),
		"scheduler":    r.Scheduler.ToCanonical(),
	}
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <rules-dir>",
		Short: "Compile a CUE ruleset to canonical JSON",
		Long: `Compile the CUE ruleset in a directory to canonical JSON.

The output lists the rules in declaration order, the scheduler limits with
defaults filled in, and the ruleset hash that stored runs are keyed by.
Identical rulesets always compile to identical bytes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, rulesDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loadResult, loadErrors := LoadRuleset(rulesDir, LoadModeCollectAll)
	if loadResult == nil {
		loadErr := firstLoadError(loadErrors)
		return outputCompileError(formatter, loadErr.Code, loadErr.Message)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, rulesDir)
	for _, r := range loadResult.Ruleset.Rules {
		formatter.VerboseLog("Compiling rule: %s", r.Name)
	}

	errs := loadErrors
	if len(errs) == 0 {
		for _, v := range compiler.Validate(loadResult.Ruleset) {
			errs = append(errs, v)
		}
	}
	if len(errs) > 0 {
		return outputCompileErrors(formatter, errs)
	}

	result, err := compileResult(loadResult.Ruleset)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error())
	}

	if opts.Output != "" {
		if err := writeCompiled(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// compileResult fills scheduler defaults and hashes the rules.
func compileResult(rs *compiler.Ruleset) (CompilationResult, error) {
	hash, err := ir.RulesetHash(rs.Rules)
	if err != nil {
		return CompilationResult{}, err
	}
	return CompilationResult{
		RulesetHash: hash,
		Rules:       rs.Rules,
		Scheduler:   rs.Scheduler.Merge(engine.DefaultSchedulerSpec()),
	}, nil
}

func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d rule(s)\n\n", len(result.Rules))
	fmt.Fprintln(w, "Rules:")
	for _, r := range result.Rules {
		fmt.Fprintf(w, "  %s: %s → %s\n", r.Name, r.LHS, r.RHS)
	}
	fmt.Fprintln(w)
	s := result.Scheduler
	fmt.Fprintf(w, "Scheduler: iteration_limit=%d node_limit=%d initial_match_limit=%d ban_length=%d",
		s.IterationLimit, s.NodeLimit, s.InitialMatchLimit, s.BanLength)
	if s.TimeLimitMs > 0 {
		fmt.Fprintf(w, " time_limit_ms=%d", s.TimeLimitMs)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Ruleset hash: %s\n", result.RulesetHash)

	if outputFile != "" {
		fmt.Fprintf(w, "\nWrote canonical JSON to %s\n", outputFile)
	}
	return nil
}

func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}
		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}
		if err := writeResponse(formatter.Writer, response); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var validationErr compiler.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Code, validationErr.Field + ": " + validationErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeCompiled writes the result as canonical JSON.
func writeCompiled(result CompilationResult, filename string) error {
	data, err := ir.MarshalCanonical(result.ToCanonical())
	if err != nil {
		return fmt.Errorf("marshaling ruleset: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
