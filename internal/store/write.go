package store

import (
	"context"
	"fmt"
)

// WriteRun inserts a run with its iterations and applied rows in one
// transaction.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing a run whose ID
// already exists is a no-op, and the stored rows are left untouched.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	rulesetJSON, err := marshalRuleset(run.Rules)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	schedulerJSON, err := marshalScheduler(run.Scheduler)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, term, term_hash, ruleset, ruleset_hash, scheduler, root_class,
		 stop_kind, stop_value, stop_message, rules_time_us, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Term,
		run.TermHash,
		rulesetJSON,
		run.RulesetHash,
		schedulerJSON,
		int64(run.RootClass),
		run.StopKind,
		run.StopValue,
		run.StopMessage,
		run.RulesTime.Microseconds(),
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil
	}

	for _, it := range run.Iterations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO iterations
			(run_id, idx, egraph_nodes, egraph_classes, search_time_us, apply_time_us, rebuild_time_us)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			it.Index,
			it.Nodes,
			it.Classes,
			it.SearchTime.Microseconds(),
			it.ApplyTime.Microseconds(),
			it.RebuildTime.Microseconds(),
		); err != nil {
			return fmt.Errorf("write iteration %d: %w", it.Index, err)
		}

		for ordinal, a := range it.Applied {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO applied (run_id, idx, ordinal, rule, count)
				VALUES (?, ?, ?, ?, ?)
			`, run.ID, it.Index, ordinal, a.Rule, a.Count); err != nil {
				return fmt.Errorf("write applied %d/%d: %w", it.Index, ordinal, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}
