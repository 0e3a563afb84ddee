package tempoapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/caibirdme/qrygw/pkg/chstore"
)

func TestToTraceByIDResponseGroupsByResource(t *testing.T) {
	ts := time.Unix(1700000000, 0).UTC()
	spans := []chstore.SpanItem{
		{
			TraceID: "tr1", SpanID: "s1", ServiceName: "svc-a",
			ResourceAttributes: map[string]string{"pod": "p1"},
			SpanName:           "root", Timestamp: ts, DurationNanos: int64(5 * time.Millisecond),
		},
		{
			TraceID: "tr1", SpanID: "s2", ServiceName: "svc-a",
			ResourceAttributes: map[string]string{"pod": "p1"},
			SpanName:           "child", ParentSpanID: "s1", Timestamp: ts, DurationNanos: int64(time.Millisecond),
		},
		{
			TraceID: "tr1", SpanID: "s3", ServiceName: "svc-b",
			ResourceAttributes: map[string]string{"pod": "p2"},
			SpanName:           "downstream", ParentSpanID: "s1", Timestamp: ts, DurationNanos: int64(2 * time.Millisecond),
		},
	}

	resp := toTraceByIDResponse(spans)
	require.Len(t, resp.Batches, 2)
	require.Len(t, resp.Batches[0].ScopeSpans[0].Spans, 2)
	require.Len(t, resp.Batches[1].ScopeSpans[0].Spans, 1)
	require.Equal(t, "s3", resp.Batches[1].ScopeSpans[0].Spans[0].SpanID)
}

func TestToSearchResponseFindsRootAndDuration(t *testing.T) {
	ts := time.Unix(1700000000, 0).UTC()
	spans := []chstore.SpanItem{
		{TraceID: "tr1", SpanID: "root", ServiceName: "svc", SpanName: "GET /x", Timestamp: ts, DurationNanos: int64(100 * time.Millisecond)},
		{TraceID: "tr1", SpanID: "child", ParentSpanID: "root", Timestamp: ts.Add(10 * time.Millisecond), DurationNanos: int64(20 * time.Millisecond)},
	}

	resp := toSearchResponse(spans)
	require.Len(t, resp.Traces, 1)
	trace := resp.Traces[0]
	require.Equal(t, "tr1", trace.TraceID)
	require.Equal(t, "svc", trace.RootServiceName)
	require.Equal(t, "GET /x", trace.RootTraceName)
	require.Equal(t, uint32(100), trace.DurationMs)
	require.Len(t, trace.SpanSets, 1)
	require.Equal(t, uint32(2), trace.SpanSets[0].Matched)
}
