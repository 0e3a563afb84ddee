// Package chstore adapts the ClickHouse wire protocol to the gateway's
// query pipeline: it turns a queryir.QueryPlan (or a TraceQL rewrite) into
// a SQL string, executes it, and decodes the result rows into the
// language-neutral item types the HTTP handlers serialize. It also feeds
// every row it decodes into a seriesstore.Store so /labels, /label/<k>/values
// and /series stay warm without a dedicated index query.
package chstore

import (
	"strings"
	"time"
)

// LogLevel is the gateway's normalized severity scale, independent of
// whatever text a particular log pipeline wrote into SeverityText.
type LogLevel string

const (
	LevelTrace LogLevel = "TRACE"
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
	LevelFatal LogLevel = "FATAL"
)

// AllLevels enumerates every normalized level, in severity order.
func AllLevels() []LogLevel {
	return []LogLevel{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal}
}

// ParseLevel normalizes a free-form severity string (as found in a config
// file's default_log_level, or a ClickHouse SeverityText column) into one
// of the gateway's LogLevel constants.
func ParseLevel(raw string) (LogLevel, bool) {
	return normalizeLevel(raw)
}

func normalizeLevel(raw string) (LogLevel, bool) {
	switch strings.ToUpper(raw) {
	case "TRACE":
		return LevelTrace, true
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return "", false
	}
}

// LogItem is one decoded log row, lowered from the ClickHouse log table's
// physical columns into the shape the Loki HTTP handlers serialize.
type LogItem struct {
	Timestamp          time.Time
	TraceID            string
	SpanID             string
	Level              LogLevel
	ServiceName        string
	Message            string
	ResourceAttributes map[string]string
	ScopeName          string
	ScopeAttributes    map[string]string
	LogAttributes      map[string]string
}

// MetricItem is one bucketed row of a LogQL metric query: a time bucket,
// the severity it was grouped by, and the count within it.
type MetricItem struct {
	Timestamp time.Time
	Level     LogLevel
	Total     uint64
}

// SpanEvent is one entry of a span's Events.* nested columns.
type SpanEvent struct {
	Timestamp  time.Time
	Name       string
	Attributes map[string]string
}

// SpanLink is one entry of a span's Links.* nested columns.
type SpanLink struct {
	TraceID    string
	SpanID     string
	TraceState string
	Attributes map[string]string
}

// SpanItem is one decoded span row.
type SpanItem struct {
	Timestamp          time.Time
	TraceID            string
	SpanID             string
	ParentSpanID       string
	TraceState         string
	SpanName           string
	SpanKind           int32
	ServiceName        string
	ResourceAttributes map[string]string
	ScopeName          string
	ScopeVersion       string
	SpanAttributes     map[string]string
	DurationNanos      int64
	StatusCode         int32
	StatusMessage      string
	Events             []SpanEvent
	Links              []SpanLink
}

// Direction orders a log-stream query by timestamp.
type Direction int

const (
	DirectionBackward Direction = iota
	DirectionForward
)

// TimeRange bounds a query's WHERE-clause timing predicates. A zero End
// means "unbounded".
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// QueryLimits carries the per-request knobs the HTTP layer extracts from
// query parameters: a result cap, a time window, a stream sort direction,
// and (for metric queries) a bucket step.
type QueryLimits struct {
	Limit     int
	Range     TimeRange
	Direction Direction
	Step      time.Duration
}
