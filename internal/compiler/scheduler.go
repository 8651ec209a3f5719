package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/eqsat/internal/ir"
)

// CompileScheduler parses a scheduler block:
//
//	scheduler: {
//		iteration_limit:     30
//		node_limit:          10000
//		initial_match_limit: 1000
//		ban_length:          5
//		time_limit_ms:       0
//	}
//
// Every field is optional; omitted fields stay zero and fall back to the
// scheduler defaults.
func CompileScheduler(v cue.Value) (ir.SchedulerSpec, error) {
	var spec ir.SchedulerSpec
	if err := v.Err(); err != nil {
		return spec, formatCUEError(err)
	}

	iter, err := v.Fields()
	if err != nil {
		return spec, formatCUEError(err)
	}
	for iter.Next() {
		field := iter.Selector().String()
		n, err := iter.Value().Int64()
		if err != nil {
			return spec, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("must be an integer: %v", err),
				Pos:     iter.Value().Pos(),
			}
		}
		switch field {
		case "iteration_limit":
			spec.IterationLimit = int(n)
		case "node_limit":
			spec.NodeLimit = int(n)
		case "initial_match_limit":
			spec.InitialMatchLimit = int(n)
		case "ban_length":
			spec.BanLength = int(n)
		case "time_limit_ms":
			spec.TimeLimitMs = n
		default:
			return spec, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("unknown scheduler field %q", field),
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return spec, nil
}
