package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/eqsat/internal/ir"
)

// marshalRuleset converts rules to canonical JSON TEXT for storage.
func marshalRuleset(rules []ir.RuleSpec) (string, error) {
	data, err := ir.MarshalCanonical(ir.RulesToCanonical(rules))
	if err != nil {
		return "", fmt.Errorf("marshal ruleset: %w", err)
	}
	return string(data), nil
}

// unmarshalRuleset parses stored ruleset JSON.
func unmarshalRuleset(data string) ([]ir.RuleSpec, error) {
	rules := []ir.RuleSpec{}
	if err := json.Unmarshal([]byte(data), &rules); err != nil {
		return nil, fmt.Errorf("unmarshal ruleset: %w", err)
	}
	return rules, nil
}

// marshalScheduler converts scheduler limits to canonical JSON TEXT.
// Zero limits are omitted.
func marshalScheduler(spec ir.SchedulerSpec) (string, error) {
	data, err := ir.MarshalCanonical(spec.ToCanonical())
	if err != nil {
		return "", fmt.Errorf("marshal scheduler: %w", err)
	}
	return string(data), nil
}

// unmarshalScheduler parses stored scheduler JSON.
func unmarshalScheduler(data string) (ir.SchedulerSpec, error) {
	var spec ir.SchedulerSpec
	if err := json.Unmarshal([]byte(data), &spec); err != nil {
		return ir.SchedulerSpec{}, fmt.Errorf("unmarshal scheduler: %w", err)
	}
	return spec, nil
}
