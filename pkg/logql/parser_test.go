package logql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseSimpleLogQuery(t *testing.T) {
	q, err := Parse(`{app="t"} |= ` + "`giao`" + ` | drop __error__`)
	require.NoError(t, err)
	require.NotNil(t, q.Log)
	require.Equal(t, []LabelPair{{Label: "app", Op: LabelEq, Value: "t"}}, q.Log.Selector)
	require.Equal(t, []Filter{
		LineFilter{Op: LineContain, Expr: "giao"},
		DropFilter{Ident: "__error__"},
	}, q.Log.Filters)
}

func TestParseMetricQueryLeadingBy(t *testing.T) {
	q, err := Parse(`sum by (level) (count_over_time({app="t"} |= ` + "`giao`" + ` | drop __error__[1m]))`)
	require.NoError(t, err)
	require.NotNil(t, q.Metric)
	require.Equal(t, AggSum, q.Metric.Aggregator)
	require.Equal(t, FuncCountOverTime, q.Metric.Func)
	require.Equal(t, []string{"level"}, q.Metric.By)
	require.Equal(t, time.Minute, q.Metric.Range)
	require.Equal(t, []LabelPair{{Label: "app", Op: LabelEq, Value: "t"}}, q.Metric.LogQuery.Selector)
	require.Len(t, q.Metric.LogQuery.Filters, 2)
}

func TestParseMetricQueryTrailingBy(t *testing.T) {
	q, err := Parse(`avg(rate({app="t"}[5m])) by (env,service)`)
	require.NoError(t, err)
	require.NotNil(t, q.Metric)
	require.Equal(t, AggAvg, q.Metric.Aggregator)
	require.Equal(t, FuncRate, q.Metric.Func)
	require.Equal(t, []string{"env", "service"}, q.Metric.By)
	require.Equal(t, 5*time.Minute, q.Metric.Range)
}

func TestParseEmptyLineFilterDropped(t *testing.T) {
	q, err := Parse(`{app="t"} |= ""`)
	require.NoError(t, err)
	require.Nil(t, q.Log.Filters)
}

func TestParseTrailingGarbageFails(t *testing.T) {
	_, err := Parse(`{app="t"} garbage`)
	require.Error(t, err)
}

func TestParseDoubleQuotedFilterExpr(t *testing.T) {
	q, err := Parse(`{app="t"} |= "login failed"`)
	require.NoError(t, err)
	require.Equal(t, []Filter{LineFilter{Op: LineContain, Expr: "login failed"}}, q.Log.Filters)
}

func TestToConditionsTraceIDForcesEq(t *testing.T) {
	lq := LogQuery{Selector: []LabelPair{{Label: "trace_id", Op: LabelNeq, Value: "abc"}}}
	conds := lq.ToConditions()
	require.Len(t, conds, 1)
	require.Equal(t, 3 /* queryir.ColTraceID */, int(conds[0].Column.Kind))
	require.Equal(t, 0 /* queryir.Eq */, int(conds[0].Cmp.Op))
}
