package traceql

import (
	"strings"
	"testing"

	"github.com/caibirdme/qrygw/pkg/queryir"
	"github.com/stretchr/testify/require"
)

type fakeSchema struct{}

func (fakeSchema) Table() string            { return "spans" }
func (fakeSchema) TimestampColumn() string  { return "Timestamp" }
func (fakeSchema) MessageColumn() string    { return "Body" }
func (fakeSchema) LevelColumn() string      { return "SeverityText" }
func (fakeSchema) TraceIDColumn() string    { return "TraceId" }
func (fakeSchema) SpanIDColumn() string     { return "SpanId" }
func (fakeSchema) ResourcesColumn() string  { return "resources" }
func (fakeSchema) AttributesColumn() string { return "attributes" }

type fakeConverter struct{}

func (fakeConverter) ConvertCondition(c queryir.Condition) string {
	switch c.Column.Kind {
	case queryir.ColResources:
		return "resources['" + c.Column.Key + "'] = '" + c.Cmp.Value.Str + "'"
	case queryir.ColAttributes:
		return "attributes['" + c.Column.Key + "'] = '" + c.Cmp.Value.Str + "'"
	case queryir.ColRaw:
		return c.Column.Key + " = 1"
	default:
		return "1"
	}
}

func (fakeConverter) ConvertTiming(tsColumn string, bound queryir.TimingBound) string {
	return tsColumn + " >= 0"
}

func TestRewriteSingleSpanSetOneUnionLeaf(t *testing.T) {
	expr, err := Parse(`{resource.app="camp"}`)
	require.NoError(t, err)
	sql := Rewrite(expr, fakeSchema{}, fakeConverter{})
	require.Contains(t, sql, "SELECT * FROM spans sp WHERE sp.SpanId IN")
	require.Equal(t, 0, strings.Count(sql, " UNION "))
}

func TestRewriteCrossSpanSetTwoLeaves(t *testing.T) {
	expr, err := Parse(`{resource.app="camp"} && {span.http.method="GET"}`)
	require.NoError(t, err)
	sql := Rewrite(expr, fakeSchema{}, fakeConverter{})
	require.Contains(t, sql, " UNION ")
	require.Contains(t, sql, "sub.TraceId IN (SELECT TraceId FROM spans WHERE resources['app'] = 'camp')")
	require.Contains(t, sql, "sub.TraceId IN (SELECT TraceId FROM spans WHERE attributes['http.method'] = 'GET')")
}
