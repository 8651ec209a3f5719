package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/eqsat/internal/compiler"
	"github.com/roach88/eqsat/internal/ir"
)

// LoadMode controls how errors are handled while loading a ruleset.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains a ruleset loaded from a directory.
type LoadResult struct {
	Ruleset   *compiler.Ruleset
	CUEValue  cue.Value
	FileCount int
}

// LoadError represents an error that occurred while loading a ruleset.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadRuleset loads the CUE package in dir and compiles its "rule" and
// "scheduler" fields. All .cue files of the package unify into one
// ruleset; rules keep their declaration order.
//
// A nil result means the package itself could not be loaded. A non-nil
// result with errors holds whatever compiled cleanly.
func LoadRuleset(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rules directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing rules directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{
		Ruleset:   &compiler.Ruleset{Rules: []ir.RuleSpec{}},
		CUEValue:  value,
		FileCount: len(cueFiles),
	}
	var errs []error

	rulesVal := value.LookupPath(cue.ParsePath("rule"))
	if rulesVal.Exists() {
		iter, iterErr := rulesVal.Fields()
		if iterErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating rules: %v", iterErr)})
			if mode == LoadModeFailFast {
				return result, errs
			}
		} else {
			for iter.Next() {
				spec, compileErr := compiler.CompileRule(iter.Value())
				if compileErr != nil {
					errs = append(errs, convertCompileError(compileErr, ErrCodeRuleShape, "rule."+iter.Label()))
					if mode == LoadModeFailFast {
						return result, errs
					}
					continue
				}
				result.Ruleset.Rules = append(result.Ruleset.Rules, *spec)
			}
		}
	}

	schedVal := value.LookupPath(cue.ParsePath("scheduler"))
	if schedVal.Exists() {
		sched, compileErr := compiler.CompileScheduler(schedVal)
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, ErrCodeSchedulerField, "scheduler"))
			if mode == LoadModeFailFast {
				return result, errs
			}
		} else {
			result.Ruleset.Scheduler = sched
		}
	}

	if len(result.Ruleset.Rules) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoRules, Message: "no rules found in " + dir})
	}

	return result, errs
}

// FindCUEFiles returns the .cue files directly in dir. cue/load reads a
// single package, so subdirectories are not part of the ruleset.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, code, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    code,
			Message: fmt.Sprintf("%s.%s: %s", context, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    code,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// firstLoadError reports the first of errs as a LoadError.
func firstLoadError(errs []error) *LoadError {
	var loadErr *LoadError
	if errors.As(errs[0], &loadErr) {
		return loadErr
	}
	return &LoadError{Code: ErrCodeGeneric, Message: errs[0].Error()}
}

// Error code constants, shared by all commands. Ruleset validation codes
// (E120-E139) live in the compiler package.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeBadTerm     = "E008" // --expr does not parse
	ErrCodeDatabase    = "E009" // Store open/read/write error

	ErrCodeRuleShape      = "E110" // rule block has a missing, extra or non-string field
	ErrCodeSchedulerField = "E111" // scheduler block has an unknown or non-integer field
	ErrCodeNoRules        = "E112" // package declares no rules
)
