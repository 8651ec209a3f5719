package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eqsat/internal/store"
)

// storeVariant stores a copy of run-1 under id after applying edit.
func storeVariant(t *testing.T, dbPath, id string, edit func(*store.Run)) {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	run, err := st.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	run.ID = id
	edit(&run)
	require.NoError(t, st.WriteRun(ctx, run))
}

func TestReplay_Deterministic(t *testing.T) {
	dbPath := seedRuns(t, "(+ 0 x)", "(+ 0 y)")

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 2 run(s)")
	assert.Contains(t, out, "✓ Run: run-1")
	assert.Contains(t, out, "✓ Run: run-2")
	assert.Contains(t, out, "2 iteration(s), saturated")
	assert.Contains(t, out, "✓ All runs verified deterministic")
}

func TestReplay_DetectsDivergence(t *testing.T) {
	dbPath := seedRuns(t, "(+ 0 x)")
	storeVariant(t, dbPath, "run-tampered", func(r *store.Run) {
		r.Iterations[0].Nodes = 99
	})

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--run", "run-tampered")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Run: run-tampered")
	assert.Contains(t, out, "iteration[0].nodes: stored 99, replayed 3")
	assert.Contains(t, out, "✗ Determinism verification failed")
}

func TestReplay_DivergenceJSON(t *testing.T) {
	dbPath := seedRuns(t, "(+ 0 x)")
	storeVariant(t, dbPath, "run-tampered", func(r *store.Run) {
		r.StopKind = "iteration_limit"
		r.StopValue = 2
	})

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "json"}), "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
		Error  *CLIError    `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_DETERMINISM", resp.Error.Code)
	require.Len(t, resp.Data.Runs, 2)
	assert.True(t, resp.Data.Runs[0].Deterministic)
	assert.False(t, resp.Data.Runs[1].Deterministic)
	assert.Equal(t, []string{
		"stop_kind: stored iteration_limit, replayed saturated",
		"stop_value: stored 2, replayed 0",
	}, resp.Data.Runs[1].Mismatches)
}

func TestReplay_SkipsTimedOutRuns(t *testing.T) {
	dbPath := seedRuns(t, "(+ 0 x)")
	storeVariant(t, dbPath, "run-timeout", func(r *store.Run) {
		r.StopKind = "timeout"
		r.StopValue = 5
		r.Iterations = r.Iterations[:1]
	})

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--run", "run-timeout")
	require.NoError(t, err)
	assert.Contains(t, out, "- Run: run-timeout")
	assert.Contains(t, out, "Skipped: stop depends on the wall clock")
}

func TestReplay_EmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found in database.")
}

func TestReplay_UnknownRun(t *testing.T) {
	dbPath := seedRuns(t, "(+ 0 x)")

	_, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
