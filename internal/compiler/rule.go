package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/eqsat/internal/ir"
)

// Ruleset is a compiled CUE ruleset: rules in declaration order plus the
// optional scheduler block.
type Ruleset struct {
	Rules     []ir.RuleSpec
	Scheduler ir.SchedulerSpec
}

// CompileRule parses a CUE value into a RuleSpec.
// The rule's name is the value's struct label:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`rule: "add-zero": { lhs: "(+ ?a 0)", rhs: "?a" }`)
//	spec, err := CompileRule(v.LookupPath(cue.ParsePath(`rule."add-zero"`)))
//
// Only the shape is checked here; Validate checks the patterns.
func CompileRule(v cue.Value) (*ir.RuleSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.RuleSpec{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		// Names are usually quoted ("add-zero"); strip the quotes.
		spec.Name = strings.Trim(labels[len(labels)-1].String(), `"`)
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		switch field := iter.Selector().String(); field {
		case "lhs", "rhs":
		default:
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("unknown rule field %q (want lhs, rhs)", field),
				Pos:     iter.Value().Pos(),
			}
		}
	}

	if spec.LHS, err = requiredString(v, "lhs"); err != nil {
		return nil, err
	}
	if spec.RHS, err = requiredString(v, "rhs"); err != nil {
		return nil, err
	}
	return spec, nil
}

// CompileRuleset parses the top-level "rule" and "scheduler" fields of a
// CUE value. Rules keep their declaration order, which is significant to
// the runner. A missing scheduler block yields a zero SchedulerSpec.
func CompileRuleset(v cue.Value) (*Ruleset, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rs := &Ruleset{Rules: []ir.RuleSpec{}}

	rulesVal := v.LookupPath(cue.ParsePath("rule"))
	if rulesVal.Exists() {
		iter, err := rulesVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			spec, err := CompileRule(iter.Value())
			if err != nil {
				return nil, err
			}
			rs.Rules = append(rs.Rules, *spec)
		}
	}

	schedVal := v.LookupPath(cue.ParsePath("scheduler"))
	if schedVal.Exists() {
		sched, err := CompileScheduler(schedVal)
		if err != nil {
			return nil, err
		}
		rs.Scheduler = sched
	}

	return rs, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}
