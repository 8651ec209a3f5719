// Package harness runs rewrite scenarios as executable contract tests.
//
// A scenario names a ruleset, a start term and scheduler limits, runs them
// to a stop and checks assertions against the run report and the final
// e-graph.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	rules_file: arith.cue          # optional, CUE ruleset
//	rules:                          # optional, inline rules
//	  - name: add-zero
//	    lhs: "(+ ?a 0)"
//	    rhs: "?a"
//	term: "(+ 0 x)"
//	scheduler:
//	  iteration_limit: 10
//	assertions:
//	  - type: stop_reason
//	    kind: saturated
//	  - type: applied_in
//	    rule: add-zero
//	    iteration: 1
//	  - type: equivalent
//	    terms: ["(+ 0 x)", "x"]
//
// Rules from rules_file come first, followed by inline rules. Scheduler
// values in the scenario override those in the CUE file.
//
// # Assertion Types
//
//   - stop_reason: the run stopped with kind (and value, if given)
//   - iteration_count: exactly count iterations were recorded
//   - max_iterations: at most count iterations were recorded
//   - applied_in: rule changed the graph in the given iteration (0-based)
//   - never_applied: rule never changed the graph
//   - equivalent: every term is in the final graph and they share a class
//
// # Deterministic Testing
//
// Every run measures time with a testutil.StepClock, so phase timings,
// time limits and the canonical report are identical across runs. This is
// what makes golden snapshots of the report possible.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/add_zero.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
