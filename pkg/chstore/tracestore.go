package chstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/caibirdme/qrygw/pkg/chconv"
	"github.com/caibirdme/qrygw/pkg/traceql"
)

// TraceQuerierConfig names the ClickHouse span table and its companion
// time-bucketed ID index, used to narrow a trace_id lookup to a small
// Timestamp window instead of scanning the whole table.
type TraceQuerierConfig struct {
	Database    string
	Table       string
	TraceTSName string
}

// TraceQuerier runs TraceQL-derived SQL against a ClickHouse span table.
type TraceQuerier struct {
	conn   driver.Conn
	schema chconv.SpanTable
	conv   chconv.Converter
	cfg    TraceQuerierConfig
	logger log.Logger
}

// NewTraceQuerier wires a connection and config into a TraceQuerier. The
// rewriter always uses dash-to-dot replacement and case-insensitive level
// matching on the span table, matching the original adapter's fixed
// CKLogConverter::new(schema, true, true) call for trace search.
func NewTraceQuerier(conn driver.Conn, cfg TraceQuerierConfig, logger log.Logger) *TraceQuerier {
	schema := chconv.SpanTable{Database: cfg.Database, Name: cfg.Table}
	return &TraceQuerier{
		conn:   conn,
		schema: schema,
		conv: chconv.Converter{
			Table:                schema,
			ReplaceDashToDot:     true,
			CaseInsensitiveLevel: true,
			NanosecondTiming:     true,
		},
		cfg:    cfg,
		logger: logger,
	}
}

// QueryTrace fetches every span belonging to trace_id. It first narrows the
// Timestamp window to [min(Start), max(End)+1] via the trace_ts_table index
// table, then scans only that window of the span table rather than the
// whole partition range.
func (q *TraceQuerier) QueryTrace(ctx context.Context, traceID string) ([]SpanItem, error) {
	ctx, span := tracer.Start(ctx, "TraceQuerier.QueryTrace",
		trace.WithAttributes(attribute.String("trace_id", traceID)))
	defer span.End()
	defer startTimer("trace", "query_trace")()

	sql := q.traceIDQuerySQL(traceID)
	items, err := q.runSpanQuery(ctx, sql)
	if err != nil {
		level.Error(q.logger).Log("msg", "query trace failed", "trace_id", traceID, "err", err)
		return nil, err
	}
	return items, nil
}

func (q *TraceQuerier) traceIDQuerySQL(traceID string) string {
	db := q.cfg.Database
	tsTable := q.cfg.TraceTSName
	sql := fmt.Sprintf(`
WITH
	'%s' as trace_id,
	(SELECT min(Start) FROM %s.%s WHERE TraceId = trace_id) as start,
	(SELECT max(End) + 1 FROM %s.%s WHERE TraceId = trace_id) as end
SELECT %s FROM %s
WHERE TraceId = trace_id
AND Timestamp >= start
AND Timestamp <= end
`,
		strings.ReplaceAll(traceID, "'", "\\'"),
		db, tsTable,
		db, tsTable,
		strings.Join(q.schema.Columns(), ","), q.schema.Table(),
	)
	return strings.Join(strings.Fields(sql), " ")
}

// SearchSpan runs a parsed TraceQL expression through the span-set
// rewriter and decodes the resulting span rows.
func (q *TraceQuerier) SearchSpan(ctx context.Context, expr *traceql.Expression) ([]SpanItem, error) {
	ctx, span := tracer.Start(ctx, "TraceQuerier.SearchSpan")
	defer span.End()
	defer startTimer("trace", "search_span")()

	sql := traceql.Rewrite(expr, q.schema, q.conv)
	items, err := q.runSpanQuery(ctx, sql)
	if err != nil {
		level.Error(q.logger).Log("msg", "search span failed", "err", err)
		return nil, err
	}
	return items, nil
}

// SpanTags and SpanTagValues are intentionally unimplemented: the original
// adapter never builds a series index over the span table (span attribute
// keys are far higher cardinality than log resource/attribute labels), so
// both return empty results rather than scanning the whole table on every
// call.
func (q *TraceQuerier) SpanTags() []string               { return nil }
func (q *TraceQuerier) SpanTagValues(tag string) []string { return nil }

func (q *TraceQuerier) runSpanQuery(ctx context.Context, sql string) ([]SpanItem, error) {
	rows, err := q.conn.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SpanItem
	for rows.Next() {
		var (
			ts           string
			traceID      string
			spanID       string
			parentSpanID string
			traceState   string
			spanName     string
			spanKind     string
			serviceName  string
			resourceAttr map[string]string
			scopeName    string
			scopeVersion string
			spanAttr     map[string]string
			duration     int64
			statusCode   string
			statusMsg    string
			eventsTs     []string
			eventsName   []string
			eventsAttrs  []map[string]string
			linksTrace   []string
			linksSpan    []string
			linksState   []string
			linksAttrs   []map[string]string
		)
		if err := rows.Scan(
			&ts, &traceID, &spanID, &parentSpanID, &traceState,
			&spanName, &spanKind, &serviceName, &resourceAttr,
			&scopeName, &scopeVersion, &spanAttr, &duration,
			&statusCode, &statusMsg,
			&eventsTs, &eventsName, &eventsAttrs,
			&linksTrace, &linksSpan, &linksState, &linksAttrs,
		); err != nil {
			return nil, fmt.Errorf("scan span row: %w", err)
		}
		parsedTS, ok := ParseTimestampBestEffort(ts)
		if !ok {
			return nil, fmt.Errorf("invalid span row timestamp %q", ts)
		}

		events := make([]SpanEvent, 0, len(eventsName))
		for i := range eventsName {
			evTS, _ := ParseTimestampBestEffort(firstOr(eventsTs, i, ""))
			events = append(events, SpanEvent{
				Timestamp:  evTS,
				Name:       eventsName[i],
				Attributes: firstOrMap(eventsAttrs, i),
			})
		}
		links := make([]SpanLink, 0, len(linksSpan))
		for i := range linksSpan {
			links = append(links, SpanLink{
				TraceID:    firstOr(linksTrace, i, ""),
				SpanID:     linksSpan[i],
				TraceState: firstOr(linksState, i, ""),
				Attributes: firstOrMap(linksAttrs, i),
			})
		}

		out = append(out, SpanItem{
			Timestamp:          parsedTS,
			TraceID:            traceID,
			SpanID:             spanID,
			ParentSpanID:       parentSpanID,
			TraceState:         traceState,
			SpanName:           spanName,
			SpanKind:           spanKindToInt(spanKind),
			ServiceName:        serviceName,
			ResourceAttributes: resourceAttr,
			ScopeName:          scopeName,
			ScopeVersion:       scopeVersion,
			SpanAttributes:     spanAttr,
			DurationNanos:      duration,
			StatusCode:         ParseStatusCode(statusCode),
			StatusMessage:      statusMsg,
			Events:             events,
			Links:              links,
		})
	}
	return out, rows.Err()
}

func firstOr(s []string, i int, fallback string) string {
	if i < len(s) {
		return s[i]
	}
	return fallback
}

func firstOrMap(s []map[string]string, i int) map[string]string {
	if i < len(s) {
		return s[i]
	}
	return nil
}

// spanKindNames maps the OTel collector's SpanKind enum names, as written
// into the SpanKind column, to the proto SpanKind integer values
// (Unspecified=0 .. Consumer=5).
var spanKindNames = map[string]int32{
	"SPAN_KIND_UNSPECIFIED": 0,
	"SPAN_KIND_INTERNAL":    1,
	"SPAN_KIND_SERVER":      2,
	"SPAN_KIND_CLIENT":      3,
	"SPAN_KIND_PRODUCER":    4,
	"SPAN_KIND_CONSUMER":    5,
}

func spanKindToInt(raw string) int32 {
	if v, ok := spanKindNames[raw]; ok {
		return v
	}
	return 0
}
