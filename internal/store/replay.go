package store

import "fmt"

// Mismatch describes one difference between a stored run and a re-run.
type Mismatch struct {
	Field    string
	Stored   string
	Replayed string
}

// String renders the mismatch for CLI output.
func (m Mismatch) String() string {
	return fmt.Sprintf("%s: stored %s, replayed %s", m.Field, m.Stored, m.Replayed)
}

// Diff compares the deterministic parts of two runs of the same inputs:
// stop reason, root class, iteration count, and per-iteration sizes and
// applied maps. Timings and IDs are ignored.
//
// Returns nil if the runs match.
func Diff(stored, replayed Run) []Mismatch {
	var out []Mismatch
	add := func(field string, a, b any) {
		sa, sb := fmt.Sprint(a), fmt.Sprint(b)
		if sa != sb {
			out = append(out, Mismatch{Field: field, Stored: sa, Replayed: sb})
		}
	}

	add("term_hash", stored.TermHash, replayed.TermHash)
	add("ruleset_hash", stored.RulesetHash, replayed.RulesetHash)
	add("stop_kind", stored.StopKind, replayed.StopKind)
	add("stop_value", stored.StopValue, replayed.StopValue)
	add("root_class", stored.RootClass, replayed.RootClass)
	add("iterations", len(stored.Iterations), len(replayed.Iterations))

	n := min(len(stored.Iterations), len(replayed.Iterations))
	for i := 0; i < n; i++ {
		a, b := stored.Iterations[i], replayed.Iterations[i]
		prefix := fmt.Sprintf("iteration[%d].", i)
		add(prefix+"nodes", a.Nodes, b.Nodes)
		add(prefix+"classes", a.Classes, b.Classes)
		add(prefix+"applied", a.Applied, b.Applied)
	}
	return out
}
