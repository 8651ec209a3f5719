package harness

import (
	"github.com/roach88/eqsat/internal/egraph"
	"github.com/roach88/eqsat/internal/engine"
	"github.com/roach88/eqsat/internal/ir"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion held.
	Pass bool `json:"pass"`

	// Report is the run report from RunExpr.
	Report engine.RunReport `json:"-"`

	// Graph is the e-graph after the run. Equivalence assertions query it.
	Graph *egraph.EGraph `json:"-"`

	// Rules and Scheduler are the resolved inputs of the run.
	Rules     []ir.RuleSpec    `json:"rules"`
	Scheduler ir.SchedulerSpec `json:"scheduler"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Rules:  []ir.RuleSpec{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
