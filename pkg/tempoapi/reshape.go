package tempoapi

import (
	"sort"
	"strconv"

	"github.com/caibirdme/qrygw/pkg/chstore"
)

// toTraceByIDResponse groups decoded spans into OTLP-shaped ResourceSpans,
// one per distinct resource, exactly as the original's reorder_spans groups
// spans into Tempo's Trace message by resource attribute set rather than
// emitting one ResourceSpans per row.
func toTraceByIDResponse(spans []chstore.SpanItem) TraceByIDResponse {
	var order []string
	byResource := make(map[string][]chstore.SpanItem)
	resourceOf := make(map[string]map[string]string)
	serviceOf := make(map[string]string)

	for _, s := range spans {
		key := resourceKey(s.ServiceName, s.ResourceAttributes)
		if _, ok := byResource[key]; !ok {
			order = append(order, key)
			resourceOf[key] = s.ResourceAttributes
			serviceOf[key] = s.ServiceName
		}
		byResource[key] = append(byResource[key], s)
	}

	batches := make([]ResourceSpans, 0, len(order))
	for _, key := range order {
		attrs := toKeyValues(resourceOf[key])
		if serviceOf[key] != "" {
			attrs = append(attrs, KeyValue{Key: "service.name", Value: AnyValue{StringValue: serviceOf[key]}})
		}
		batches = append(batches, ResourceSpans{
			Resource:   Resource{Attributes: attrs},
			ScopeSpans: []ScopeSpans{{Spans: toSpans(byResource[key])}},
		})
	}
	return TraceByIDResponse{Batches: batches}
}

func resourceKey(service string, attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	key := "service.name=" + service
	for _, k := range keys {
		key += "\x00" + k + "=" + attrs[k]
	}
	return key
}

func toKeyValues(attrs map[string]string) []KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]KeyValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, KeyValue{Key: k, Value: AnyValue{StringValue: attrs[k]}})
	}
	return out
}

func toSpans(items []chstore.SpanItem) []Span {
	out := make([]Span, 0, len(items))
	for _, it := range items {
		startNanos := it.Timestamp.UnixNano()
		out = append(out, Span{
			TraceID:           it.TraceID,
			SpanID:            it.SpanID,
			ParentSpanID:      it.ParentSpanID,
			TraceState:        it.TraceState,
			Name:              it.SpanName,
			Kind:              it.SpanKind,
			StartTimeUnixNano: strconv.FormatInt(startNanos, 10),
			EndTimeUnixNano:   strconv.FormatInt(startNanos+it.DurationNanos, 10),
			Attributes:        toKeyValues(it.SpanAttributes),
			Events:            toSpanEvents(it.Events),
			Links:             toSpanLinks(it.Links),
			Status:            Status{Code: it.StatusCode, Message: it.StatusMessage},
		})
	}
	return out
}

func toSpanEvents(events []chstore.SpanEvent) []SpanEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]SpanEvent, 0, len(events))
	for _, e := range events {
		out = append(out, SpanEvent{
			TimeUnixNano: strconv.FormatInt(e.Timestamp.UnixNano(), 10),
			Name:         e.Name,
			Attributes:   toKeyValues(e.Attributes),
		})
	}
	return out
}

func toSpanLinks(links []chstore.SpanLink) []SpanLink {
	if len(links) == 0 {
		return nil
	}
	out := make([]SpanLink, 0, len(links))
	for _, l := range links {
		out = append(out, SpanLink{
			TraceID:    l.TraceID,
			SpanID:     l.SpanID,
			TraceState: l.TraceState,
			Attributes: toKeyValues(l.Attributes),
		})
	}
	return out
}

// toSearchResponse groups decoded spans by trace_id and builds one
// TraceSearchMetadata per trace, exactly as search_trace_v2's
// get_root_name_map finds each trace's root span (empty ParentSpanID) for
// its name/service and its max end-time span for its duration.
func toSearchResponse(spans []chstore.SpanItem) SearchResponse {
	var order []string
	byTrace := make(map[string][]chstore.SpanItem)
	for _, s := range spans {
		if _, ok := byTrace[s.TraceID]; !ok {
			order = append(order, s.TraceID)
		}
		byTrace[s.TraceID] = append(byTrace[s.TraceID], s)
	}

	traces := make([]TraceSearchMetadata, 0, len(order))
	for _, traceID := range order {
		items := byTrace[traceID]
		root, minStart, maxEnd := rootAndRange(items)

		meta := TraceSearchMetadata{
			TraceID:           traceID,
			StartTimeUnixNano: uint64(minStart),
			DurationMs:        uint32((maxEnd - minStart) / int64(1e6)),
			SpanSets: []SpanSet{{
				Spans:   toTempoSpans(items),
				Matched: uint32(len(items)),
			}},
		}
		if root != nil {
			meta.RootServiceName = root.ServiceName
			meta.RootTraceName = root.SpanName
		}
		traces = append(traces, meta)
	}
	return SearchResponse{Traces: traces}
}

func rootAndRange(items []chstore.SpanItem) (*chstore.SpanItem, int64, int64) {
	var root *chstore.SpanItem
	minStart := items[0].Timestamp.UnixNano()
	maxEnd := items[0].Timestamp.UnixNano() + items[0].DurationNanos
	for i := range items {
		it := &items[i]
		start := it.Timestamp.UnixNano()
		end := start + it.DurationNanos
		if start < minStart {
			minStart = start
		}
		if end > maxEnd {
			maxEnd = end
		}
		if it.ParentSpanID == "" && root == nil {
			root = it
		}
	}
	return root, minStart, maxEnd
}

func toTempoSpans(items []chstore.SpanItem) []TempoSpan {
	out := make([]TempoSpan, 0, len(items))
	for _, it := range items {
		out = append(out, TempoSpan{
			SpanID:            it.SpanID,
			Name:              it.SpanName,
			StartTimeUnixNano: uint64(it.Timestamp.UnixNano()),
			DurationNanos:     uint64(it.DurationNanos),
			Attributes:        toKeyValues(it.SpanAttributes),
		})
	}
	return out
}
