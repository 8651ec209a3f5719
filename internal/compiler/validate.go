package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/eqsat/internal/ir"
	"github.com/roach88/eqsat/internal/rewrite"
)

// Validation error codes (E120-E139)
const (
	// Rule errors (E120-E129)
	ErrRuleNameEmpty     = "E120" // rule name is required
	ErrDuplicateRuleName = "E121" // two rules share a name
	ErrInvalidPattern    = "E122" // lhs or rhs does not parse
	ErrBareVariableLHS   = "E123" // lhs is a lone variable
	ErrUnboundVariable   = "E124" // rhs uses a variable lhs does not bind
	ErrEmptyRuleset      = "E125" // no rules declared

	// Scheduler errors (E130-E139)
	ErrNegativeLimit = "E130" // a scheduler limit is negative
)

// ValidationError represents a ruleset validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"` // CUE source line, when known
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled ruleset.
// Returns all errors found (does not fail-fast).
func Validate(rs *Ruleset) []ValidationError {
	var errs []ValidationError

	if len(rs.Rules) == 0 {
		errs = append(errs, ValidationError{
			Field:   "rule",
			Message: "at least one rule is required",
			Code:    ErrEmptyRuleset,
		})
	}

	seen := make(map[string]bool, len(rs.Rules))
	for i, spec := range rs.Rules {
		field := fmt.Sprintf("rule.%q", spec.Name)
		if spec.Name == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("rule[%d]", i),
				Message: "name is required",
				Code:    ErrRuleNameEmpty,
			})
			continue
		}
		if seen[spec.Name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "duplicate rule name",
				Code:    ErrDuplicateRuleName,
			})
		}
		seen[spec.Name] = true

		if _, err := rewrite.New(spec); err != nil {
			errs = append(errs, ruleError(field, err))
		}
	}

	errs = append(errs, ValidateScheduler(rs.Scheduler)...)
	return errs
}

// ruleError maps a rewrite construction error to a coded ValidationError.
func ruleError(field string, err error) ValidationError {
	var re *rewrite.RuleError
	if !errors.As(err, &re) {
		return ValidationError{Field: field, Message: err.Error(), Code: ErrInvalidPattern}
	}

	code := ErrInvalidPattern
	switch {
	case re.Err != nil:
		// pattern did not parse
	case re.Side == "lhs":
		code = ErrBareVariableLHS
	case re.Side == "rhs":
		code = ErrUnboundVariable
	}
	if re.Side != "" {
		field += "." + re.Side
	}
	return ValidationError{Field: field, Message: re.Message, Code: code}
}

// ValidateScheduler checks that no scheduler limit is negative.
// Zero means "use the default" and is always accepted.
func ValidateScheduler(spec ir.SchedulerSpec) []ValidationError {
	var errs []ValidationError
	limits := []struct {
		field string
		value int64
	}{
		{"scheduler.iteration_limit", int64(spec.IterationLimit)},
		{"scheduler.node_limit", int64(spec.NodeLimit)},
		{"scheduler.initial_match_limit", int64(spec.InitialMatchLimit)},
		{"scheduler.ban_length", int64(spec.BanLength)},
		{"scheduler.time_limit_ms", spec.TimeLimitMs},
	}
	for _, l := range limits {
		if l.value < 0 {
			errs = append(errs, ValidationError{
				Field:   l.field,
				Message: fmt.Sprintf("must not be negative, got %d", l.value),
				Code:    ErrNegativeLimit,
			})
		}
	}
	return errs
}
