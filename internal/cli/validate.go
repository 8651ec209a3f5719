package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/eqsat/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Rules    int                        `json:"rules"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rules-dir>",
		Short: "Validate a ruleset without running it",
		Long: `Validate the CUE ruleset in a directory.

Checks rule and scheduler blocks, parses every pattern, rejects duplicate
names, bare-variable left-hand sides and right-hand variables the
left-hand side does not bind. Rule cycles are reported as warnings; they
do not fail validation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, rulesDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loadResult, loadErrors := LoadRuleset(rulesDir, LoadModeCollectAll)
	if loadResult == nil {
		loadErr := firstLoadError(loadErrors)
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", loadErr.Code, loadErr.Message))
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, rulesDir)
	for _, r := range loadResult.Ruleset.Rules {
		formatter.VerboseLog("Validating rule: %s", r.Name)
	}

	var validationErrors []compiler.ValidationError
	for _, err := range loadErrors {
		validationErrors = append(validationErrors, loadErrorToValidation(err))
	}
	// An empty ruleset is already reported by the loader.
	if len(loadResult.Ruleset.Rules) > 0 {
		validationErrors = append(validationErrors, compiler.Validate(loadResult.Ruleset)...)
	}

	result := ValidationResult{
		Valid:    len(validationErrors) == 0,
		Rules:    len(loadResult.Ruleset.Rules),
		Errors:   validationErrors,
		Warnings: compiler.AnalyzeCycles(loadResult.Ruleset.Rules),
	}

	if formatter.Format == "json" {
		return outputValidateJSON(formatter, result)
	}
	return outputValidateText(formatter, result)
}

func loadErrorToValidation(err error) compiler.ValidationError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		line := 0
		if loadErr.Pos.IsValid() {
			line = loadErr.Pos.Line()
		}
		return compiler.ValidationError{
			Field:   "load",
			Message: loadErr.Message,
			Code:    loadErr.Code,
			Line:    line,
		}
	}
	return compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric}
}

func outputValidateJSON(formatter *OutputFormatter, result ValidationResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.Valid {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    result.Errors[0].Code,
			Message: result.Errors[0].Message,
		}
	}
	if err := writeResponse(formatter.Writer, response); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

func outputValidateText(formatter *OutputFormatter, result ValidationResult) error {
	w := formatter.Writer

	for _, warn := range result.Warnings {
		if warn.Level == "info" && !formatter.Verbose {
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", warn.Level, warn.Message)
	}

	if result.Valid {
		fmt.Fprintf(w, "✓ All %d rule(s) valid\n", result.Rules)
		return nil
	}

	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, err := range result.Errors {
		if err.Line > 0 {
			fmt.Fprintf(w, "line %d\n", err.Line)
		}
		fmt.Fprintf(w, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
