package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eqsat/internal/ir"
)

func TestAppliedCounts_InsertionOrder(t *testing.T) {
	var a AppliedCounts
	assert.True(t, a.IsEmpty())

	a.Inc("zeta")
	a.Inc("alpha")
	a.Inc("zeta")

	assert.Equal(t, []string{"zeta", "alpha"}, a.Names())
	assert.Equal(t, 2, a.Len())
	n, ok := a.Get("zeta")
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	_, ok = a.Get("missing")
	assert.False(t, ok)

	var seen []string
	a.Each(func(rule string, count int) {
		seen = append(seen, fmt.Sprintf("%s=%d", rule, count))
	})
	assert.Equal(t, []string{"zeta=2", "alpha=1"}, seen)
}

func TestRunReport_TotalApplied(t *testing.T) {
	var first, second Iteration
	first.Applied.Inc("b")
	second.Applied.Inc("a")
	second.Applied.Inc("b")

	total := RunReport{Iterations: []Iteration{first, second}}.TotalApplied()

	assert.Equal(t, []string{"b", "a"}, total.Names())
	n, _ := total.Get("b")
	assert.Equal(t, 2, n)
}

func TestRunReport_ToCanonical(t *testing.T) {
	var it Iteration
	it.EGraphNodes = 3
	it.EGraphClasses = 3
	it.Applied.Inc("add-zero")
	it.SearchTime = 1500 * time.Microsecond

	report := RunReport{
		InitialExpr:      ir.MustParseTerm("(+ x 0)"),
		InitialExprClass: 0,
		Iterations:       []Iteration{it},
		RulesTime:        2 * time.Millisecond,
		StopReason:       IterationLimit(1),
	}

	data, err := ir.MarshalCanonical(report.ToCanonical())
	require.NoError(t, err)
	assert.Equal(t,
		`{"initial_expr":"(+ x 0)","initial_expr_class":0,"iterations":[`+
			`{"applied":[{"count":1,"rule":"add-zero"}],"apply_time_us":0,"egraph_classes":3,`+
			`"egraph_nodes":3,"rebuild_time_us":0,"search_time_us":1500}],`+
			`"rules_time_us":2000,"stop":{"kind":"iteration_limit","message":"iteration limit: 1","value":1}}`,
		string(data))
}

func TestRunReport_ToCanonicalCustomStop(t *testing.T) {
	report := RunReport{InitialExpr: ir.MustParseTerm("x"), StopReason: errors.New("halt")}

	stop := report.ToCanonical()["stop"].(map[string]any)
	assert.Equal(t, "custom", stop["kind"])
	assert.Equal(t, "halt", stop["message"])
	assert.NotContains(t, stop, "value")
}

func TestStopReason_Messages(t *testing.T) {
	tests := []struct {
		reason *StopReason
		want   string
	}{
		{Saturated(), "saturated"},
		{IterationLimit(30), "iteration limit: 30"},
		{NodeLimit(10001), "node limit: 10001"},
		{Timeout(250), "timeout after 250ms"},
		{Cancelled(), "cancelled"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.reason.Error())
	}
}

func TestStopReason_HelpersUnwrap(t *testing.T) {
	err := fmt.Errorf("run failed: %w", Saturated())

	assert.True(t, IsSaturated(err))
	assert.False(t, IsIterationLimit(err))
	assert.False(t, IsNodeLimit(err))
	assert.False(t, IsTimeout(err))
	assert.False(t, IsCancelled(err))

	sr, ok := AsStopReason(err)
	require.True(t, ok)
	assert.Equal(t, StopSaturated, sr.Kind)

	assert.False(t, IsSaturated(errors.New("saturated")))
	assert.False(t, IsSaturated(nil))
}
