// Package engine implements the equality-saturation runner.
//
// The runner drives a set of rewrite rules over a graph in discrete steps
// until a hook asks it to stop. Each step has three phases:
//
//  1. Search: every rule is searched, in declaration order, against the
//     graph as it stood at the start of the step.
//  2. Apply: every rule that found matches is applied, in the same order.
//  3. Rebuild: the graph restores its invariants once for the whole batch.
//
// Decisions about when to stop and which rules to throttle live in a
// Runner's hooks (PreStep, DuringStep, PostStep, SearchRewrite,
// ApplyRewrite). Step, Run and RunExpr drive the hooks and never decide
// anything on their own. SimpleScheduler is the default Runner: it stops on
// saturation, an iteration limit or a node limit, and bans rules whose
// match counts explode, with exponential backoff.
//
// EXECUTION MODEL:
//
// Everything is single-threaded and synchronous. Hooks run on the caller's
// goroutine, and a run owns its graph exclusively until it returns. A stop
// requested mid-step (from DuringStep) aborts the step immediately: edits
// already made to the graph are kept, but that step produces no Iteration.
//
// Rule order is significant and is never changed. Stats tables and applied
// counts keep insertion order so reports are reproducible.
package engine
