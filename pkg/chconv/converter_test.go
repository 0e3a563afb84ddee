package chconv

import (
	"testing"

	"github.com/caibirdme/qrygw/pkg/queryir"
	"github.com/stretchr/testify/require"
)

func TestConvertConditionContains(t *testing.T) {
	conv := Converter{Table: LogTable{Database: "logs", Name: "otel"}}
	cond := queryir.Condition{Column: queryir.Message(), Cmp: queryir.CmpContains("login failed")}
	got := conv.ConvertCondition(cond)
	require.Equal(t, "hasToken(Body, 'login') AND hasToken(Body, 'failed')", got)
}

func TestConvertConditionLevelCaseInsensitive(t *testing.T) {
	conv := Converter{Table: LogTable{Database: "logs", Name: "otel"}, CaseInsensitiveLevel: true}
	cond := queryir.Condition{Column: queryir.Level(), Cmp: queryir.CmpEq(queryir.StringValue("ERROR"))}
	require.Equal(t, "SeverityText ILIKE 'ERROR'", conv.ConvertCondition(cond))
}

func TestConvertConditionMapColumnsAsymmetricFlag(t *testing.T) {
	onConv := Converter{Table: LogTable{Database: "logs", Name: "otel"}, ReplaceDashToDot: true}
	offConv := Converter{Table: LogTable{Database: "logs", Name: "otel"}}

	resCond := queryir.Condition{Column: queryir.Resources("k8s_pod_name"), Cmp: queryir.CmpEq(queryir.StringValue("x"))}
	require.Equal(t, "ResourceAttributes['k8s.pod.name'] = 'x'", onConv.ConvertCondition(resCond))
	require.Equal(t, "ResourceAttributes['k8s_pod_name'] = 'x'", offConv.ConvertCondition(resCond))

	attrCond := queryir.Condition{Column: queryir.Attributes("http_method"), Cmp: queryir.CmpEq(queryir.StringValue("x"))}
	require.Equal(t, "LogAttributes['http_method'] = 'x'", onConv.ConvertCondition(attrCond))
	require.Equal(t, "LogAttributes['http.method'] = 'x'", offConv.ConvertCondition(attrCond))
}

func TestConvertTimingNanosecondPrecision(t *testing.T) {
	conv := Converter{Table: SpanTable{Database: "traces", Name: "otel"}, NanosecondTiming: true}
	got := conv.ConvertTiming("Timestamp", queryir.TimingBound{Op: queryir.TimingGTE})
	require.Contains(t, got, "toDateTime64(")
}
