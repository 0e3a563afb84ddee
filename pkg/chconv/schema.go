// Package chconv implements the ClickHouse-shaped QueryConverter and
// TableSchema pair: the only seam between the dialect-neutral queryir and
// the SQL this gateway's backing store actually understands.
package chconv

import "fmt"

// LogTable is the physical shape of the log table queried by LogQL.
type LogTable struct {
	Database string
	Name     string
}

func (t LogTable) Table() string           { return fmt.Sprintf("%s.%s", t.Database, t.Name) }
func (t LogTable) TimestampColumn() string  { return "TimestampTime" }
func (t LogTable) MessageColumn() string    { return "Body" }
func (t LogTable) LevelColumn() string      { return "SeverityText" }
func (t LogTable) TraceIDColumn() string    { return "TraceId" }
func (t LogTable) SpanIDColumn() string     { return "SpanId" }
func (t LogTable) ResourcesColumn() string  { return "ResourceAttributes" }
func (t LogTable) AttributesColumn() string { return "LogAttributes" }

// Columns lists the physical projection chstore scans a log row into, in
// column order.
func (t LogTable) Columns() []string {
	return []string{
		"Timestamp", "TraceId", "SpanId", "SeverityText", "ServiceName",
		"Body", "ResourceAttributes", "ScopeName", "ScopeAttributes", "LogAttributes",
	}
}

// SpanTable is the physical shape of the span table queried by TraceQL.
type SpanTable struct {
	Database string
	Name     string
}

func (t SpanTable) Table() string           { return fmt.Sprintf("%s.%s", t.Database, t.Name) }
func (t SpanTable) TimestampColumn() string  { return "Timestamp" }
func (t SpanTable) MessageColumn() string    { return "SpanName" }
func (t SpanTable) LevelColumn() string      { return "StatusCode" }
func (t SpanTable) TraceIDColumn() string    { return "TraceId" }
func (t SpanTable) SpanIDColumn() string     { return "SpanId" }
func (t SpanTable) ResourcesColumn() string  { return "ResourceAttributes" }
func (t SpanTable) AttributesColumn() string { return "SpanAttributes" }

// Columns lists the physical projection chstore scans a span row into, in
// column order.
func (t SpanTable) Columns() []string {
	return []string{
		"Timestamp", "TraceId", "SpanId", "ParentSpanId", "TraceState",
		"SpanName", "SpanKind", "ServiceName", "ResourceAttributes",
		"ScopeName", "ScopeVersion", "SpanAttributes", "Duration",
		"StatusCode", "StatusMessage",
		"Events.Timestamp", "Events.Name", "Events.Attributes",
		"Links.TraceId", "Links.SpanId", "Links.TraceState", "Links.Attributes",
	}
}
