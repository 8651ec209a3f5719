// Package egraph provides the term-equivalence graph that eqsat saturates.
//
// An EGraph stores e-nodes (operator applications over classes) grouped
// into e-classes under a union-find. Merges are cheap and deferred: Union
// only records the merge and queues the surviving class, and Rebuild later
// restores the two invariants every reader relies on:
//
//   - Hashcons: every canonical e-node maps to exactly one class.
//   - Congruence: e-nodes with the same operator and equal child classes
//     live in the same class.
//
// Readers (pattern search, size checks) may run between Union and Rebuild;
// they see a graph that is sound but may contain duplicate e-nodes.
//
// The graph is not safe for concurrent use. A run owns its graph for the
// whole run and is the only writer.
package egraph
