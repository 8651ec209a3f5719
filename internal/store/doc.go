// Package store provides SQLite-backed storage for saturation run reports.
//
// Each run is stored as three kinds of rows:
//   - runs: inputs (term, ruleset, scheduler limits) and outcome (root
//     class, stop reason, total rule time)
//   - iterations: one row per completed step
//   - applied: the step's applied map, one row per rule in insertion order
//
// Terms and rulesets are also stored by content hash (see ir.TermHash and
// ir.RulesetHash), so runs over the same inputs can be found and compared.
//
// # Determinism
//
// Reads order by explicit keys: runs by id (UUIDv7, so creation order),
// iterations by idx, applied rows by ordinal. Durations are stored as
// integer microseconds.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
