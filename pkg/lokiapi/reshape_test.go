package lokiapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/caibirdme/qrygw/pkg/chstore"
)

func TestToStreamResponseTagsAndValues(t *testing.T) {
	ts := time.Date(2024, 5, 4, 17, 38, 7, 0, time.UTC)
	rows := []chstore.LogItem{{
		Timestamp:          ts,
		TraceID:            "t1",
		SpanID:             "s1",
		Level:              chstore.LevelWarn,
		ServiceName:        "svc",
		Message:            "boom",
		ResourceAttributes: map[string]string{"pod": "p1"},
		ScopeName:          "scope1",
		ScopeAttributes:    map[string]string{"sk": "sv"},
		LogAttributes:      map[string]string{"http_method": "GET"},
	}}

	resp := toStreamResponse(rows)
	require.Equal(t, StatusSuccess, resp.Status)
	streams, ok := resp.Data.(StreamResult)
	require.True(t, ok)
	require.Equal(t, ResultStreams, streams.ResultType)
	require.Len(t, streams.Result, 1)

	sv := streams.Result[0]
	require.Equal(t, "svc", sv.Stream["ServiceName"])
	require.Equal(t, "t1", sv.Stream["TraceId"])
	require.Equal(t, "WARN", sv.Stream["level"])
	require.Equal(t, "p1", sv.Stream["resources.pod"])
	require.Equal(t, "sv", sv.Stream["scopes.sk"])
	require.Equal(t, "GET", sv.Stream["attributes.http_method"])
	require.Len(t, sv.Values, 1)
	require.Equal(t, "boom", sv.Values[0][1])
}

func TestToMetricResponseGroupsByLevel(t *testing.T) {
	ts := time.Unix(1700000000, 0).UTC()
	rows := []chstore.MetricItem{
		{Timestamp: ts, Level: chstore.LevelInfo, Total: 3},
		{Timestamp: ts.Add(time.Minute), Level: chstore.LevelInfo, Total: 5},
		{Timestamp: ts, Level: chstore.LevelError, Total: 1},
	}
	resp := toMetricResponse(rows)
	matrix, ok := resp.Data.(MatrixResult)
	require.True(t, ok)
	require.Len(t, matrix.Result, 2)

	var infoSeries, errSeries *MatrixValue
	for i := range matrix.Result {
		switch matrix.Result[i].Metric["level"] {
		case "INFO":
			infoSeries = &matrix.Result[i]
		case "ERROR":
			errSeries = &matrix.Result[i]
		}
	}
	require.NotNil(t, infoSeries)
	require.NotNil(t, errSeries)
	require.Len(t, infoSeries.Values, 2)
	require.Len(t, errSeries.Values, 1)
}
