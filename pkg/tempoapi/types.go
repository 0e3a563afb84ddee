// Package tempoapi implements the Tempo-compatible HTTP surface: trace
// lookup by ID, TraceQL search, and the tag/tag-value stub endpoints a
// Grafana Tempo datasource probes on connect.
package tempoapi

// The original gateway answers GET /api/traces/{traceID} with a protobuf or
// JSON-encoded OTLP ExportTraceServiceRequest, chosen by content
// negotiation on Accept. Re-encoding into the OTLP wire protobuf is treated
// as an external collaborator's concern here (this gateway never writes
// trace data, only reads it back out), so both content types serve the same
// JSON body below — it mirrors the protobuf/JSON OTLP message shape
// (batches of ResourceSpans, each bearing one Resource and one or more
// ScopeSpans) field-for-field, just without the wire encoding.
type TraceByIDResponse struct {
	Batches []ResourceSpans `json:"batches"`
}

type ResourceSpans struct {
	Resource   Resource    `json:"resource"`
	ScopeSpans []ScopeSpans `json:"scopeSpans"`
}

type Resource struct {
	Attributes []KeyValue `json:"attributes"`
}

type ScopeSpans struct {
	Scope InstrumentationScope `json:"scope"`
	Spans []Span               `json:"spans"`
}

type InstrumentationScope struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type KeyValue struct {
	Key   string   `json:"key"`
	Value AnyValue `json:"value"`
}

// AnyValue only ever carries a string: every attribute this gateway reads
// back out of ClickHouse is already a flattened string column, so the rest
// of OTLP's AnyValue oneof (bool/int/double/array/kvlist) has no source to
// populate it from.
type AnyValue struct {
	StringValue string `json:"stringValue"`
}

type Span struct {
	TraceID           string     `json:"traceId"`
	SpanID            string     `json:"spanId"`
	ParentSpanID      string     `json:"parentSpanId,omitempty"`
	TraceState        string     `json:"traceState,omitempty"`
	Name              string     `json:"name"`
	Kind              int32      `json:"kind"`
	StartTimeUnixNano string     `json:"startTimeUnixNano"`
	EndTimeUnixNano   string     `json:"endTimeUnixNano"`
	Attributes        []KeyValue `json:"attributes,omitempty"`
	Events            []SpanEvent `json:"events,omitempty"`
	Links             []SpanLink  `json:"links,omitempty"`
	Status            Status      `json:"status"`
}

type SpanEvent struct {
	TimeUnixNano string     `json:"timeUnixNano"`
	Name         string     `json:"name"`
	Attributes   []KeyValue `json:"attributes,omitempty"`
}

type SpanLink struct {
	TraceID    string     `json:"traceId"`
	SpanID     string     `json:"spanId"`
	TraceState string     `json:"traceState,omitempty"`
	Attributes []KeyValue `json:"attributes,omitempty"`
}

type Status struct {
	Code    int32  `json:"code"`
	Message string `json:"message,omitempty"`
}

// SearchResponse is Tempo's /api/search and /api/v2/search envelope.
type SearchResponse struct {
	Traces []TraceSearchMetadata `json:"traces"`
}

type TraceSearchMetadata struct {
	TraceID           string    `json:"traceID"`
	RootServiceName   string    `json:"rootServiceName,omitempty"`
	RootTraceName     string    `json:"rootTraceName,omitempty"`
	StartTimeUnixNano uint64    `json:"startTimeUnixNano,string"`
	DurationMs        uint32    `json:"durationMs"`
	SpanSets          []SpanSet `json:"spanSets,omitempty"`
}

type SpanSet struct {
	Spans   []TempoSpan `json:"spans"`
	Matched uint32      `json:"matched"`
}

type TempoSpan struct {
	SpanID            string     `json:"spanID"`
	Name              string     `json:"name"`
	StartTimeUnixNano uint64     `json:"startTimeUnixNano,string"`
	DurationNanos     uint64     `json:"durationNanos,string"`
	Attributes        []KeyValue `json:"attributes,omitempty"`
}

// SearchTagsResponse answers /api/v2/search/tags.
type SearchTagsResponse struct {
	TagNames []string `json:"tagNames"`
}

// TagValuesResponse answers /api/v2/search/tag/{name}/values.
type TagValuesResponse struct {
	TagValues []string `json:"tagValues"`
}

// BuildInfoResponse answers /api/status/buildinfo, the shape Grafana's
// Tempo datasource probes to confirm it's talking to a Tempo-compatible
// server before issuing any real queries.
type BuildInfoResponse struct {
	Version   string `json:"version"`
	Revision  string `json:"revision"`
	GoVersion string `json:"goVersion"`
}
