package store

import (
	"fmt"
	"time"

	"github.com/roach88/eqsat/internal/engine"
	"github.com/roach88/eqsat/internal/ir"
)

// Run is the stored form of one RunExpr call and its inputs.
type Run struct {
	ID          string
	Term        string
	TermHash    string
	Rules       []ir.RuleSpec
	RulesetHash string
	Scheduler   ir.SchedulerSpec

	RootClass   ir.ID
	StopKind    string // an engine.StopKind, or "custom"
	StopValue   int
	StopMessage string
	RulesTime   time.Duration

	EngineVersion string
	IRVersion     string

	// Iterations is nil for runs returned by ListRuns.
	Iterations []Iteration
}

// Iteration is the stored form of engine.Iteration.
type Iteration struct {
	Index       int
	Nodes       int
	Classes     int
	Applied     []Applied
	SearchTime  time.Duration
	ApplyTime   time.Duration
	RebuildTime time.Duration
}

// Applied is one entry of an iteration's applied map.
type Applied struct {
	Rule  string
	Count int
}

// StopCustom is the stored kind of stops that are not engine.StopReasons.
const StopCustom = "custom"

// NewRun builds the stored form of a report.
// Durations are truncated to microseconds, the storage resolution.
func NewRun(id string, report engine.RunReport, rules []ir.RuleSpec, sched ir.SchedulerSpec) (Run, error) {
	termHash, err := ir.TermHash(report.InitialExpr)
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}
	rulesetHash, err := ir.RulesetHash(rules)
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}

	run := Run{
		ID:            id,
		Term:          report.InitialExpr.String(),
		TermHash:      termHash,
		Rules:         rules,
		RulesetHash:   rulesetHash,
		Scheduler:     sched,
		RootClass:     report.InitialExprClass,
		StopKind:      StopCustom,
		RulesTime:     report.RulesTime.Truncate(time.Microsecond),
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
		Iterations:    make([]Iteration, len(report.Iterations)),
	}
	if report.StopReason != nil {
		run.StopMessage = report.StopReason.Error()
	}
	if sr, ok := report.Stop(); ok {
		run.StopKind = string(sr.Kind)
		run.StopValue = sr.Value
	}

	for i, it := range report.Iterations {
		stored := Iteration{
			Index:       i,
			Nodes:       it.EGraphNodes,
			Classes:     it.EGraphClasses,
			Applied:     []Applied{},
			SearchTime:  it.SearchTime.Truncate(time.Microsecond),
			ApplyTime:   it.ApplyTime.Truncate(time.Microsecond),
			RebuildTime: it.RebuildTime.Truncate(time.Microsecond),
		}
		it.Applied.Each(func(rule string, count int) {
			stored.Applied = append(stored.Applied, Applied{Rule: rule, Count: count})
		})
		run.Iterations[i] = stored
	}
	return run, nil
}

// ParseTerm parses the stored start term.
func (r Run) ParseTerm() (ir.Term, error) {
	return ir.ParseTerm(r.Term)
}
