package chstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/caibirdme/qrygw/pkg/chconv"
	"github.com/caibirdme/qrygw/pkg/logql"
	"github.com/caibirdme/qrygw/pkg/queryir"
	"github.com/caibirdme/qrygw/pkg/seriesstore"
)

// LogQuerierConfig holds the per-deployment knobs a LogQuerier needs beyond
// the bare ClickHouse connection: which map keys get promoted to indexed
// labels, and how to render the two dash/dot column-key quirks.
type LogQuerierConfig struct {
	Database                 string
	Table                    string
	ReplaceDashToDot         bool
	LevelCaseInsensitive     bool
	DefaultLevel             LogLevel
	ConcernedResourceLabels  []string
	ConcernedAttributeLabels []string
}

// LogQuerier runs LogQL-derived SQL against a ClickHouse log table and
// keeps the gateway's series index warm from every row it decodes.
type LogQuerier struct {
	conn   driver.Conn
	schema chconv.LogTable
	conv   chconv.Converter
	cfg    LogQuerierConfig
	series *seriesstore.Store
	logger log.Logger
}

// NewLogQuerier wires a connection, config and series store into a
// LogQuerier ready to serve queries.
func NewLogQuerier(conn driver.Conn, cfg LogQuerierConfig, series *seriesstore.Store, logger log.Logger) *LogQuerier {
	schema := chconv.LogTable{Database: cfg.Database, Name: cfg.Table}
	return &LogQuerier{
		conn:   conn,
		schema: schema,
		conv: chconv.Converter{
			Table:                schema,
			ReplaceDashToDot:     cfg.ReplaceDashToDot,
			CaseInsensitiveLevel: cfg.LevelCaseInsensitive,
		},
		cfg:    cfg,
		series: series,
		logger: logger,
	}
}

// QueryStream runs a bare log selector/filter query and decodes the
// matching rows.
func (q *LogQuerier) QueryStream(ctx context.Context, query logql.LogQuery, limits QueryLimits) ([]LogItem, error) {
	ctx, span := tracer.Start(ctx, "LogQuerier.QueryStream",
		trace.WithAttributes(attribute.Int("limit", limits.Limit)))
	defer span.End()
	defer startTimer("log", "query_stream")()

	plan := &queryir.QueryPlan{
		Schema:     q.schema,
		Projection: q.schema.Columns(),
		Selection:  query.ToSelection(),
		Sorting:    directionSorting(limits.Direction, q.schema),
		Timing:     rangeTiming(limits.Range),
		Limit:      limits.Limit,
	}
	sql := plan.SQL(q.conv)
	items, err := q.runLogQuery(ctx, sql)
	if err != nil {
		level.Error(q.logger).Log("msg", "query log stream failed", "err", err)
		return nil, err
	}
	q.recordLabels(items)
	return items, nil
}

// QueryMetrics runs an aggregated LogQL metric query (sum/avg over
// rate/count_over_time), bucketing by severity and a time window sized by
// the step duration.
func (q *LogQuerier) QueryMetrics(ctx context.Context, query logql.MetricQuery, limits QueryLimits) ([]MetricItem, error) {
	ctx, span := tracer.Start(ctx, "LogQuerier.QueryMetrics",
		trace.WithAttributes(attribute.String("step", limits.Step.String())))
	defer span.End()
	defer startTimer("log", "query_metrics")()

	step := limits.Step
	if step <= 0 {
		step = defaultStep
	}
	bucketExpr := chconv.BucketExpr(q.schema.TimestampColumn(), step) + " AS Tts"
	plan := &queryir.QueryPlan{
		Schema:     q.schema,
		Projection: []string{bucketExpr, q.schema.LevelColumn(), "count(*) as Total"},
		Selection:  query.LogQuery.ToSelection(),
		Grouping:   []string{q.schema.LevelColumn(), "Tts"},
		Timing:     rangeTiming(limits.Range),
		Limit:      limits.Limit,
	}
	sql := plan.SQL(q.conv)

	rows, err := q.conn.Query(ctx, sql)
	if err != nil {
		level.Error(q.logger).Log("msg", "query log metrics failed", "err", err)
		return nil, err
	}
	defer rows.Close()

	var out []MetricItem
	for rows.Next() {
		var ts string
		var severityText string
		var total uint64
		if err := rows.Scan(&ts, &severityText, &total); err != nil {
			return nil, fmt.Errorf("scan metric row: %w", err)
		}
		parsed, ok := ParseTimestampBestEffort(ts)
		if !ok {
			return nil, fmt.Errorf("invalid metric bucket timestamp %q", ts)
		}
		out = append(out, MetricItem{
			Timestamp: parsed,
			Level:     consistentLevel(severityText, q.cfg.DefaultLevel),
			Total:     total,
		})
	}
	return out, rows.Err()
}

// Labels returns every label name observed in the series index, plus the
// synthetic trace_id label every log row always carries.
func (q *LogQuerier) Labels() []string {
	return append(q.series.Labels(), "trace_id")
}

// LabelValues returns the observed values for label; trace_id/traceId is
// special-cased to a placeholder value since trace IDs aren't enumerable
// from the series index.
func (q *LogQuerier) LabelValues(label string) []string {
	switch strings.ToLower(label) {
	case "trace_id", "traceid":
		return []string{"your_trace_id"}
	default:
		return q.series.LabelValues(label)
	}
}

// Series returns every stored label-set matching query's equality selector
// (non-equality operators are ignored, matching the series index's
// equality-only query shape), each annotated with the trace_id placeholder.
func (q *LogQuerier) Series(query *logql.LogQuery) []map[string]string {
	conditions := seriesstore.Stream{}
	if query != nil {
		for _, lp := range query.Selector {
			if lp.Op == logql.LabelEq && q.concernedLabel(lp.Label) {
				conditions[lp.Label] = lp.Value
			}
		}
	}
	matches := q.series.Query(conditions)
	out := make([]map[string]string, len(matches))
	for i, m := range matches {
		withTrace := make(map[string]string, len(m)+1)
		for k, v := range m {
			withTrace[k] = v
		}
		withTrace["trace_id"] = "your_trace_id"
		out[i] = withTrace
	}
	return out
}

func (q *LogQuerier) runLogQuery(ctx context.Context, sql string) ([]LogItem, error) {
	rows, err := q.conn.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LogItem
	for rows.Next() {
		var (
			ts         string
			traceID    string
			spanID     string
			severity   string
			service    string
			body       string
			resources  map[string]string
			scopeName  string
			scopeAttrs map[string]string
			logAttrs   map[string]string
		)
		if err := rows.Scan(&ts, &traceID, &spanID, &severity, &service, &body, &resources, &scopeName, &scopeAttrs, &logAttrs); err != nil {
			return nil, fmt.Errorf("scan log row: %w", err)
		}
		parsed, ok := ParseTimestampBestEffort(ts)
		if !ok {
			return nil, fmt.Errorf("invalid log row timestamp %q", ts)
		}
		out = append(out, LogItem{
			Timestamp:          parsed,
			TraceID:            traceID,
			SpanID:             spanID,
			Level:              consistentLevel(severity, q.cfg.DefaultLevel),
			ServiceName:        service,
			Message:            body,
			ResourceAttributes: resources,
			ScopeName:          scopeName,
			ScopeAttributes:    scopeAttrs,
			LogAttributes:      logAttrs,
		})
	}
	return out, rows.Err()
}

// recordLabels promotes the configured allow-list of resource/log
// attributes (plus ServiceName and level, which are always indexed) from
// decoded rows into the series store.
func (q *LogQuerier) recordLabels(items []LogItem) {
	batch := q.buildSeriesBatch(items)
	if len(batch) == 0 {
		return
	}
	q.series.Add(batch)
}

func (q *LogQuerier) buildSeriesBatch(items []LogItem) []seriesstore.Stream {
	batch := make([]seriesstore.Stream, 0, len(items))
	for _, item := range items {
		labels := seriesstore.Stream{
			"service_name": item.ServiceName,
			"level":        string(item.Level),
		}
		for _, key := range q.cfg.ConcernedResourceLabels {
			if v, ok := item.ResourceAttributes[key]; ok {
				labels["resources_"+key] = v
			}
		}
		for _, key := range q.cfg.ConcernedAttributeLabels {
			if v, ok := item.LogAttributes[key]; ok {
				labels["attributes_"+key] = v
			}
		}
		batch = append(batch, labels)
	}
	return batch
}

// FetchSeriesSince runs a windowed scan of rows written since the given
// time and returns them as series-store streams, without feeding the
// series store itself — querycache.Refresher owns that step so the same
// batch can also be cached, per C9's periodic refresh design.
func (q *LogQuerier) FetchSeriesSince(ctx context.Context, since time.Time) ([]seriesstore.Stream, error) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE TimestampTime >= '%s' LIMIT 3000",
		strings.Join(q.schema.Columns(), ","), q.schema.Table(),
		since.UTC().Format("2006-01-02 15:04:05"),
	)
	items, err := q.runLogQuery(ctx, sql)
	if err != nil {
		return nil, err
	}
	return q.buildSeriesBatch(items), nil
}

func (q *LogQuerier) concernedLabel(label string) bool {
	switch strings.ToLower(label) {
	case "service_name", "level":
		return true
	}
	for _, k := range q.cfg.ConcernedResourceLabels {
		if "resources_"+k == label {
			return true
		}
	}
	for _, k := range q.cfg.ConcernedAttributeLabels {
		if "attributes_"+k == label {
			return true
		}
	}
	return false
}

const defaultStep = 60 * time.Second

func directionSorting(d Direction, schema chconv.LogTable) []queryir.SortKey {
	dir := queryir.Desc
	if d == DirectionForward {
		dir = queryir.Asc
	}
	return []queryir.SortKey{{Column: schema.TimestampColumn(), Direction: dir}}
}

func rangeTiming(r TimeRange) []queryir.TimingBound {
	var out []queryir.TimingBound
	if !r.Start.IsZero() {
		out = append(out, queryir.TimingBound{Op: queryir.TimingGTE, When: r.Start})
	}
	if !r.End.IsZero() {
		out = append(out, queryir.TimingBound{Op: queryir.TimingLTE, When: r.End})
	}
	return out
}
