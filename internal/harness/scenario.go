package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/eqsat/internal/ir"
)

// Scenario defines a saturation test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RulesFile is an optional CUE ruleset, relative to the scenario's base
	// path once loaded.
	RulesFile string `yaml:"rules_file,omitempty"`

	// Rules are inline rules, appended after those of RulesFile.
	Rules []RuleDef `yaml:"rules,omitempty"`

	// Term is the start term in S-expression syntax.
	Term string `yaml:"term"`

	// Scheduler overrides the scheduler limits. Zero fields keep the CUE
	// file's value, then the scheduler default.
	Scheduler SchedulerConfig `yaml:"scheduler,omitempty"`

	// Assertions validate the run report and final graph.
	Assertions []Assertion `yaml:"assertions"`
}

// RuleDef is an inline rewrite rule.
type RuleDef struct {
	Name string `yaml:"name"`
	LHS  string `yaml:"lhs"`
	RHS  string `yaml:"rhs"`
}

// Spec converts the definition to a RuleSpec.
func (d RuleDef) Spec() ir.RuleSpec {
	return ir.RuleSpec{Name: d.Name, LHS: d.LHS, RHS: d.RHS}
}

// SchedulerConfig mirrors ir.SchedulerSpec with YAML field names.
type SchedulerConfig struct {
	IterationLimit    int   `yaml:"iteration_limit,omitempty"`
	NodeLimit         int   `yaml:"node_limit,omitempty"`
	InitialMatchLimit int   `yaml:"initial_match_limit,omitempty"`
	BanLength         int   `yaml:"ban_length,omitempty"`
	TimeLimitMs       int64 `yaml:"time_limit_ms,omitempty"`
}

// Spec converts the config to a SchedulerSpec.
func (c SchedulerConfig) Spec() ir.SchedulerSpec {
	return ir.SchedulerSpec{
		IterationLimit:    c.IterationLimit,
		NodeLimit:         c.NodeLimit,
		InitialMatchLimit: c.InitialMatchLimit,
		BanLength:         c.BanLength,
		TimeLimitMs:       c.TimeLimitMs,
	}
}

// Assertion validates the outcome of a run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "stop_reason": Kind, and Value when set
	// - "iteration_count": Count
	// - "max_iterations": Count
	// - "applied_in": Rule and Iteration
	// - "never_applied": Rule
	// - "equivalent": Terms
	Type string `yaml:"type"`

	// Kind is the expected stop kind (used by stop_reason).
	Kind string `yaml:"kind,omitempty"`

	// Value is the expected stop value (used by stop_reason).
	Value *int `yaml:"value,omitempty"`

	// Count is the expected number of iterations (used by iteration_count,
	// max_iterations).
	Count *int `yaml:"count,omitempty"`

	// Rule is the rule name (used by applied_in, never_applied).
	Rule string `yaml:"rule,omitempty"`

	// Iteration is the 0-based iteration index (used by applied_in).
	Iteration *int `yaml:"iteration,omitempty"`

	// Terms must all share one e-class (used by equivalent).
	Terms []string `yaml:"terms,omitempty"`
}

// Assertion type constants.
const (
	AssertStopReason     = "stop_reason"
	AssertIterationCount = "iteration_count"
	AssertMaxIterations  = "max_iterations"
	AssertAppliedIn      = "applied_in"
	AssertNeverApplied   = "never_applied"
	AssertEquivalent     = "equivalent"
)

// LoadScenario reads and parses a scenario YAML file.
// A relative rules_file is resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving rules_file relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the rules path BEFORE validation
	if scenario.RulesFile != "" && !filepath.IsAbs(scenario.RulesFile) && basePath != "" {
		scenario.RulesFile = filepath.Join(basePath, scenario.RulesFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.RulesFile == "" && len(s.Rules) == 0 {
		return fmt.Errorf("rules or rules_file is required")
	}

	if s.RulesFile != "" {
		if _, err := os.Stat(s.RulesFile); os.IsNotExist(err) {
			return fmt.Errorf("rules file not found: %s", s.RulesFile)
		}
	}

	for i, r := range s.Rules {
		if r.Name == "" {
			return fmt.Errorf("rules[%d]: name is required", i)
		}
		if r.LHS == "" || r.RHS == "" {
			return fmt.Errorf("rules[%d]: lhs and rhs are required", i)
		}
	}

	if s.Term == "" {
		return fmt.Errorf("term is required")
	}
	if _, err := ir.ParseTerm(s.Term); err != nil {
		return fmt.Errorf("term: %w", err)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertStopReason:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for stop_reason", index)
		}
	case AssertIterationCount, AssertMaxIterations:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertAppliedIn:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for applied_in", index)
		}
		if a.Iteration == nil || *a.Iteration < 0 {
			return fmt.Errorf("assertions[%d]: non-negative iteration is required for applied_in", index)
		}
	case AssertNeverApplied:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for never_applied", index)
		}
	case AssertEquivalent:
		if len(a.Terms) < 2 {
			return fmt.Errorf("assertions[%d]: at least two terms are required for equivalent", index)
		}
		for j, src := range a.Terms {
			if _, err := ir.ParseTerm(src); err != nil {
				return fmt.Errorf("assertions[%d].terms[%d]: %w", index, j, err)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
