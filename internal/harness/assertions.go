package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/eqsat/internal/engine"
	"github.com/roach88/eqsat/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the applied rules per iteration as debugging context.
type AssertionError struct {
	Type     string            // Assertion type for categorization
	Expected string            // Human-readable expected outcome
	Actual   string            // Human-readable actual outcome
	Report   *engine.RunReport // Run report for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Report != nil {
		fmt.Fprintf(&buf, "\nIterations:\n")
		for i, it := range e.Report.Iterations {
			fmt.Fprintf(&buf, "  [%d] nodes=%d classes=%d applied=%v\n",
				i, it.EGraphNodes, it.EGraphClasses, it.Applied.Names())
		}
		if e.Report.StopReason != nil {
			fmt.Fprintf(&buf, "  stop: %s\n", e.Report.StopReason)
		}
	}

	return buf.String()
}

// stopKind returns the report's stop kind, "custom" for non-scheduler stops.
func stopKind(report *engine.RunReport) (string, int) {
	if sr, ok := report.Stop(); ok {
		return string(sr.Kind), sr.Value
	}
	return "custom", 0
}

// assertStopReason checks the kind, and the value when given.
func assertStopReason(report *engine.RunReport, assertion Assertion) error {
	kind, value := stopKind(report)
	if kind != assertion.Kind {
		return &AssertionError{
			Type:     AssertStopReason,
			Expected: fmt.Sprintf("stop kind %s", assertion.Kind),
			Actual:   fmt.Sprintf("stop kind %s", kind),
			Report:   report,
		}
	}
	if assertion.Value != nil && *assertion.Value != value {
		return &AssertionError{
			Type:     AssertStopReason,
			Expected: fmt.Sprintf("stop %s with value %d", assertion.Kind, *assertion.Value),
			Actual:   fmt.Sprintf("value %d", value),
			Report:   report,
		}
	}
	return nil
}

// assertIterationCount checks the exact number of recorded iterations.
func assertIterationCount(report *engine.RunReport, assertion Assertion) error {
	if got := len(report.Iterations); got != *assertion.Count {
		return &AssertionError{
			Type:     AssertIterationCount,
			Expected: fmt.Sprintf("%d iterations", *assertion.Count),
			Actual:   fmt.Sprintf("%d iterations", got),
			Report:   report,
		}
	}
	return nil
}

// assertMaxIterations checks an upper bound on recorded iterations.
func assertMaxIterations(report *engine.RunReport, assertion Assertion) error {
	if got := len(report.Iterations); got > *assertion.Count {
		return &AssertionError{
			Type:     AssertMaxIterations,
			Expected: fmt.Sprintf("at most %d iterations", *assertion.Count),
			Actual:   fmt.Sprintf("%d iterations", got),
			Report:   report,
		}
	}
	return nil
}

// assertAppliedIn checks that rule changed the graph in one iteration.
func assertAppliedIn(report *engine.RunReport, assertion Assertion) error {
	idx := *assertion.Iteration
	if idx >= len(report.Iterations) {
		return &AssertionError{
			Type:     AssertAppliedIn,
			Expected: fmt.Sprintf("%s applied in iteration %d", assertion.Rule, idx),
			Actual:   fmt.Sprintf("only %d iterations recorded", len(report.Iterations)),
			Report:   report,
		}
	}
	if _, ok := report.Iterations[idx].Applied.Get(assertion.Rule); !ok {
		return &AssertionError{
			Type:     AssertAppliedIn,
			Expected: fmt.Sprintf("%s applied in iteration %d", assertion.Rule, idx),
			Actual:   fmt.Sprintf("applied %v", report.Iterations[idx].Applied.Names()),
			Report:   report,
		}
	}
	return nil
}

// assertNeverApplied checks that rule changed nothing in any iteration.
func assertNeverApplied(report *engine.RunReport, assertion Assertion) error {
	for i, it := range report.Iterations {
		if _, ok := it.Applied.Get(assertion.Rule); ok {
			return &AssertionError{
				Type:     AssertNeverApplied,
				Expected: fmt.Sprintf("%s never applied", assertion.Rule),
				Actual:   fmt.Sprintf("applied in iteration %d", i),
				Report:   report,
			}
		}
	}
	return nil
}

// equivalenceChecker answers equivalence queries on the final graph.
type equivalenceChecker interface {
	LookupTerm(ir.Term) (ir.ID, bool)
}

// assertEquivalent checks that every term is represented in one class.
func assertEquivalent(g equivalenceChecker, assertion Assertion) error {
	var first ir.ID
	for i, src := range assertion.Terms {
		term, err := ir.ParseTerm(src)
		if err != nil {
			return fmt.Errorf("equivalent: term %q: %w", src, err)
		}
		id, ok := g.LookupTerm(term)
		if !ok {
			return &AssertionError{
				Type:     AssertEquivalent,
				Expected: fmt.Sprintf("%s in the e-graph", src),
				Actual:   "not represented",
			}
		}
		if i == 0 {
			first = id
			continue
		}
		if id != first {
			return &AssertionError{
				Type:     AssertEquivalent,
				Expected: fmt.Sprintf("%s equivalent to %s", src, assertion.Terms[0]),
				Actual:   fmt.Sprintf("classes %s and %s", id, first),
			}
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string
	report := &result.Report

	for i, assertion := range assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			errors = append(errors, err.Error())
			continue
		}

		var err error
		switch assertion.Type {
		case AssertStopReason:
			err = assertStopReason(report, assertion)
		case AssertIterationCount:
			err = assertIterationCount(report, assertion)
		case AssertMaxIterations:
			err = assertMaxIterations(report, assertion)
		case AssertAppliedIn:
			err = assertAppliedIn(report, assertion)
		case AssertNeverApplied:
			err = assertNeverApplied(report, assertion)
		case AssertEquivalent:
			if result.Graph == nil {
				err = fmt.Errorf("assertion[%d]: equivalent requires the final e-graph", i)
			} else {
				err = assertEquivalent(result.Graph, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
