package ir

// RuleSpec is an authored rewrite rule: when LHS matches, RHS is added to the
// matched class. Both sides are pattern S-expressions where atoms starting
// with '?' are variables.
type RuleSpec struct {
	Name string `json:"name"`
	LHS  string `json:"lhs"`
	RHS  string `json:"rhs"`
}

// SchedulerSpec carries authored limits for the default scheduler.
// A zero field means "use the scheduler default".
type SchedulerSpec struct {
	IterationLimit    int   `json:"iteration_limit,omitempty"`
	NodeLimit         int   `json:"node_limit,omitempty"`
	InitialMatchLimit int   `json:"initial_match_limit,omitempty"`
	BanLength         int   `json:"ban_length,omitempty"`
	TimeLimitMs       int64 `json:"time_limit_ms,omitempty"`
}

// Merge returns s with every zero field filled from fallback.
func (s SchedulerSpec) Merge(fallback SchedulerSpec) SchedulerSpec {
	if s.IterationLimit == 0 {
		s.IterationLimit = fallback.IterationLimit
	}
	if s.NodeLimit == 0 {
		s.NodeLimit = fallback.NodeLimit
	}
	if s.InitialMatchLimit == 0 {
		s.InitialMatchLimit = fallback.InitialMatchLimit
	}
	if s.BanLength == 0 {
		s.BanLength = fallback.BanLength
	}
	if s.TimeLimitMs == 0 {
		s.TimeLimitMs = fallback.TimeLimitMs
	}
	return s
}

// ToCanonical converts the spec to a map for canonical JSON.
// Zero fields are omitted, mirroring the json tags.
func (s SchedulerSpec) ToCanonical() map[string]any {
	m := map[string]any{}
	if s.IterationLimit != 0 {
		m["iteration_limit"] = s.IterationLimit
	}
	if s.NodeLimit != 0 {
		m["node_limit"] = s.NodeLimit
	}
	if s.InitialMatchLimit != 0 {
		m["initial_match_limit"] = s.InitialMatchLimit
	}
	if s.BanLength != 0 {
		m["ban_length"] = s.BanLength
	}
	if s.TimeLimitMs != 0 {
		m["time_limit_ms"] = s.TimeLimitMs
	}
	return m
}

// RulesToCanonical converts rules to a canonical JSON array, preserving
// declaration order (rule order is significant to the runner).
func RulesToCanonical(rules []RuleSpec) []any {
	out := make([]any, len(rules))
	for i, r := range rules {
		out[i] = map[string]any{
			"name": r.Name,
			"lhs":  r.LHS,
			"rhs":  r.RHS,
		}
	}
	return out
}
