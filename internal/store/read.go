package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/eqsat/internal/ir"
)

const runColumns = `id, term, term_hash, ruleset, ruleset_hash, scheduler, root_class,
	stop_kind, stop_value, stop_message, rules_time_us, engine_version, ir_version`

// ReadRun returns a run with all of its iterations.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}

	iterations, err := s.readIterations(ctx, id)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	run.Iterations = iterations
	return run, nil
}

// ListRuns returns every run without iterations, ordered by id.
// With a non-empty termHash only runs of that term are returned.
//
// Returns an empty slice (not nil) if there are no runs.
func (s *Store) ListRuns(ctx context.Context, termHash string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if termHash != "" {
		query += ` WHERE term_hash = ?`
		args = append(args, termHash)
	}
	query += ` ORDER BY id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// readIterations returns a run's iterations ordered by idx, with applied
// rows in ordinal order.
func (s *Store) readIterations(ctx context.Context, runID string) ([]Iteration, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, egraph_nodes, egraph_classes, search_time_us, apply_time_us, rebuild_time_us
		FROM iterations
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query iterations: %w", err)
	}

	iterations := []Iteration{}
	for rows.Next() {
		var it Iteration
		var searchUs, applyUs, rebuildUs int64
		if err := rows.Scan(&it.Index, &it.Nodes, &it.Classes, &searchUs, &applyUs, &rebuildUs); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan iteration: %w", err)
		}
		it.SearchTime = time.Duration(searchUs) * time.Microsecond
		it.ApplyTime = time.Duration(applyUs) * time.Microsecond
		it.RebuildTime = time.Duration(rebuildUs) * time.Microsecond
		it.Applied = []Applied{}
		iterations = append(iterations, it)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate iterations: %w", err)
	}
	rows.Close()

	applied, err := s.db.QueryContext(ctx, `
		SELECT idx, rule, count
		FROM applied
		WHERE run_id = ?
		ORDER BY idx ASC, ordinal ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query applied: %w", err)
	}
	defer applied.Close()

	for applied.Next() {
		var idx int
		var a Applied
		if err := applied.Scan(&idx, &a.Rule, &a.Count); err != nil {
			return nil, fmt.Errorf("scan applied: %w", err)
		}
		if idx < 0 || idx >= len(iterations) {
			return nil, fmt.Errorf("applied row for missing iteration %d", idx)
		}
		iterations[idx].Applied = append(iterations[idx].Applied, a)
	}
	if err := applied.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied: %w", err)
	}
	return iterations, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var rulesetJSON, schedulerJSON string
	var rootClass, rulesUs int64
	if err := row.Scan(
		&run.ID,
		&run.Term,
		&run.TermHash,
		&rulesetJSON,
		&run.RulesetHash,
		&schedulerJSON,
		&rootClass,
		&run.StopKind,
		&run.StopValue,
		&run.StopMessage,
		&rulesUs,
		&run.EngineVersion,
		&run.IRVersion,
	); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	rules, err := unmarshalRuleset(rulesetJSON)
	if err != nil {
		return Run{}, err
	}
	sched, err := unmarshalScheduler(schedulerJSON)
	if err != nil {
		return Run{}, err
	}
	run.Rules = rules
	run.Scheduler = sched
	run.RootClass = ir.ID(rootClass)
	run.RulesTime = time.Duration(rulesUs) * time.Microsecond
	return run, nil
}
