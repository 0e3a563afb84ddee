package tempoapi

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caibirdme/qrygw/pkg/chstore"
)

func TestLimitSpansCapsDistinctTraces(t *testing.T) {
	spans := []chstore.SpanItem{
		{TraceID: "a", SpanID: "1"},
		{TraceID: "a", SpanID: "2"},
		{TraceID: "b", SpanID: "3"},
		{TraceID: "c", SpanID: "4"},
	}
	limited := limitSpans(spans, 2)
	traceIDs := map[string]struct{}{}
	for _, s := range limited {
		traceIDs[s.TraceID] = struct{}{}
	}
	require.Len(t, traceIDs, 2)
	require.Contains(t, traceIDs, "a")
	require.Contains(t, traceIDs, "b")
}

func TestLimitSpansNoopWhenUnderLimit(t *testing.T) {
	spans := []chstore.SpanItem{{TraceID: "a"}, {TraceID: "b"}}
	require.Equal(t, spans, limitSpans(spans, 10))
}
