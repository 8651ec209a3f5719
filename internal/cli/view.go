package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/roach88/eqsat/internal/ir"
	"github.com/roach88/eqsat/internal/store"
)

// RunView is the output form of a run, shared by run, trace and replay.
// Durations are integer microseconds.
type RunView struct {
	ID          string           `json:"id"`
	Term        string           `json:"term"`
	TermHash    string           `json:"term_hash"`
	RulesetHash string           `json:"ruleset_hash"`
	Scheduler   ir.SchedulerSpec `json:"scheduler"`
	RootClass   ir.ID            `json:"root_class"`
	Stop        StopView         `json:"stop"`
	RulesTimeUs int64            `json:"rules_time_us"`
	Iterations  []IterationView  `json:"iterations,omitempty"`
}

// StopView is a run's stop reason.
type StopView struct {
	Kind    string `json:"kind"`
	Value   int    `json:"value"`
	Message string `json:"message"`
}

// IterationView is one step of a run.
type IterationView struct {
	Index         int           `json:"index"`
	Nodes         int           `json:"egraph_nodes"`
	Classes       int           `json:"egraph_classes"`
	Applied       []AppliedView `json:"applied"`
	SearchTimeUs  int64         `json:"search_time_us"`
	ApplyTimeUs   int64         `json:"apply_time_us"`
	RebuildTimeUs int64         `json:"rebuild_time_us"`
}

// AppliedView is one entry of an iteration's applied map.
type AppliedView struct {
	Rule  string `json:"rule"`
	Count int    `json:"count"`
}

// newRunView converts a stored run. Iterations are left out when the run
// was listed rather than read.
func newRunView(r store.Run) RunView {
	v := RunView{
		ID:          r.ID,
		Term:        r.Term,
		TermHash:    r.TermHash,
		RulesetHash: r.RulesetHash,
		Scheduler:   r.Scheduler,
		RootClass:   r.RootClass,
		Stop:        StopView{Kind: r.StopKind, Value: r.StopValue, Message: r.StopMessage},
		RulesTimeUs: r.RulesTime.Microseconds(),
	}
	for _, it := range r.Iterations {
		iv := IterationView{
			Index:         it.Index,
			Nodes:         it.Nodes,
			Classes:       it.Classes,
			Applied:       make([]AppliedView, len(it.Applied)),
			SearchTimeUs:  it.SearchTime.Microseconds(),
			ApplyTimeUs:   it.ApplyTime.Microseconds(),
			RebuildTimeUs: it.RebuildTime.Microseconds(),
		}
		for i, a := range it.Applied {
			iv.Applied[i] = AppliedView{Rule: a.Rule, Count: a.Count}
		}
		v.Iterations = append(v.Iterations, iv)
	}
	return v
}

// writeRunText prints a run header, its iterations and its stop.
func writeRunText(w io.Writer, v RunView, verbose bool) {
	fmt.Fprintf(w, "Run: %s\n", v.ID)
	fmt.Fprintf(w, "Term: %s\n", v.Term)
	if verbose {
		fmt.Fprintf(w, "Term hash: %s\n", v.TermHash)
		fmt.Fprintf(w, "Ruleset hash: %s\n", v.RulesetHash)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Iterations ===")
	if len(v.Iterations) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, it := range v.Iterations {
		fmt.Fprintf(w, "  [%d] nodes=%d classes=%d applied=%s\n",
			it.Index, it.Nodes, it.Classes, formatApplied(it.Applied))
		if verbose {
			fmt.Fprintf(w, "       search=%s apply=%s rebuild=%s\n",
				micros(it.SearchTimeUs), micros(it.ApplyTimeUs), micros(it.RebuildTimeUs))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Stop: %s\n", v.Stop.Message)
	fmt.Fprintf(w, "Root class: %s\n", v.RootClass)
	fmt.Fprintf(w, "Rules time: %s\n", micros(v.RulesTimeUs))
}

// formatApplied renders applied entries in order, e.g. "[add-zero:1]".
func formatApplied(applied []AppliedView) string {
	parts := make([]string, len(applied))
	for i, a := range applied {
		parts[i] = fmt.Sprintf("%s:%d", a.Rule, a.Count)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func micros(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}
