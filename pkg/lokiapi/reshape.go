package lokiapi

import (
	"strconv"

	"github.com/caibirdme/qrygw/pkg/chstore"
)

// toStreamResponse reshapes decoded log rows into Loki's streams envelope,
// one StreamValue per row with a single [timestamp_ns, line] pair, exactly
// as original_source/src/logquery/query_range.rs's
// to_log_query_range_response builds its tag map per row.
func toStreamResponse(rows []chstore.LogItem) QueryRangeResponse {
	result := make([]StreamValue, 0, len(rows))
	for _, r := range rows {
		tags := map[string]string{
			"ServiceName":  r.ServiceName,
			"TraceId":      r.TraceID,
			"SpanId":       r.SpanID,
			"SeverityText": string(r.Level),
			"level":        string(r.Level),
		}
		if r.ScopeName != "" {
			tags["scope_name"] = r.ScopeName
		}
		for k, v := range r.ResourceAttributes {
			tags["resources."+k] = v
		}
		for k, v := range r.ScopeAttributes {
			tags["scopes."+k] = v
		}
		for k, v := range r.LogAttributes {
			tags["attributes."+k] = v
		}
		result = append(result, StreamValue{
			Stream: tags,
			Values: [][2]string{{strconv.FormatInt(r.Timestamp.UnixNano(), 10), r.Message}},
		})
	}
	return QueryRangeResponse{
		Status: StatusSuccess,
		Data:   StreamResult{ResultType: ResultStreams, Result: result},
	}
}

// toMetricResponse reshapes bucketed metric rows into Loki's matrix
// envelope, one MatrixValue series per distinct level, exactly as
// to_metric_query_range_response groups by level.
func toMetricResponse(rows []chstore.MetricItem) QueryRangeResponse {
	order := make([]chstore.LogLevel, 0)
	byLevel := make(map[chstore.LogLevel][]chstore.MetricItem)
	for _, r := range rows {
		if _, ok := byLevel[r.Level]; !ok {
			order = append(order, r.Level)
		}
		byLevel[r.Level] = append(byLevel[r.Level], r)
	}

	result := make([]MatrixValue, 0, len(order))
	for _, lvl := range order {
		items := byLevel[lvl]
		values := make([][2]any, 0, len(items))
		for _, it := range items {
			values = append(values, [2]any{it.Timestamp.Unix(), strconv.FormatUint(it.Total, 10)})
		}
		result = append(result, MatrixValue{
			Metric: map[string]string{"level": string(lvl)},
			Values: values,
		})
	}
	return QueryRangeResponse{
		Status: StatusSuccess,
		Data:   MatrixResult{ResultType: ResultMatrix, Result: result},
	}
}
