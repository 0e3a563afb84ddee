package queryir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSchema struct{}

func (fakeSchema) Table() string            { return "logs" }
func (fakeSchema) TimestampColumn() string  { return "TimestampTime" }
func (fakeSchema) MessageColumn() string    { return "Body" }
func (fakeSchema) LevelColumn() string      { return "SeverityText" }
func (fakeSchema) TraceIDColumn() string    { return "TraceId" }
func (fakeSchema) SpanIDColumn() string     { return "SpanId" }
func (fakeSchema) ResourcesColumn() string  { return "resources" }
func (fakeSchema) AttributesColumn() string { return "attributes" }

type fakeConverter struct{}

func (fakeConverter) ConvertCondition(c Condition) string {
	switch c.Column.Kind {
	case ColRaw:
		return c.Column.Key + " = '" + c.Cmp.Value.Str + "'"
	case ColMessage:
		return "hasToken(Body, '" + c.Cmp.Raw + "')"
	default:
		return "1"
	}
}

func (fakeConverter) ConvertTiming(tsColumn string, bound TimingBound) string {
	op := ">="
	if bound.Op == TimingLTE {
		op = "<="
	}
	return tsColumn + " " + op + " toDateTime(" + bound.When.UTC().Format("2006-01-02T15:04:05") + ")"
}

func TestConditionsIntoSelectionRightLeaning(t *testing.T) {
	conds := []Condition{
		{Column: Raw("app"), Cmp: CmpEq(StringValue("a"))},
		{Column: Raw("env"), Cmp: CmpEq(StringValue("b"))},
		{Column: Raw("svc"), Cmp: CmpEq(StringValue("c"))},
	}
	sel := ConditionsIntoSelection(conds)
	require.Equal(t, SelAnd, sel.Kind)
	require.Equal(t, SelUnit, sel.Left.Kind)
	require.Equal(t, "app", sel.Left.Cond.Column.Key)
	require.Equal(t, SelAnd, sel.Right.Kind)
	require.Equal(t, "env", sel.Right.Left.Cond.Column.Key)
	require.Equal(t, "svc", sel.Right.Right.Cond.Column.Key)
}

func TestConditionsIntoSelectionEmpty(t *testing.T) {
	require.Nil(t, ConditionsIntoSelection(nil))
}

func TestQueryPlanSQLClauseOrder(t *testing.T) {
	sel := And(
		Unit(Condition{Column: Raw("app"), Cmp: CmpEq(StringValue("a"))}),
		Unit(Condition{Column: Message(), Cmp: CmpContains("giao")}),
	)
	plan := &QueryPlan{
		Schema:     fakeSchema{},
		Projection: []string{"Body", "TimestampTime"},
		Selection:  sel,
		Grouping:   nil,
		Sorting:    []SortKey{{Column: "TimestampTime", Direction: Desc}},
		Timing: []TimingBound{
			{Op: TimingGTE, When: time.Unix(1000, 0)},
			{Op: TimingLTE, When: time.Unix(2000, 0)},
		},
		Limit: 100,
	}
	got := plan.SQL(fakeConverter{})
	require.Contains(t, got, "SELECT Body, TimestampTime FROM logs WHERE")
	require.Contains(t, got, "(app = 'a' AND hasToken(Body, 'giao'))")
	require.Contains(t, got, "ORDER BY TimestampTime DESC")
	require.Contains(t, got, "LIMIT 100")
	require.True(t, strIndex(got, "WHERE") < strIndex(got, "ORDER BY"))
	require.True(t, strIndex(got, "ORDER BY") < strIndex(got, "LIMIT"))
}

func strIndex(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
