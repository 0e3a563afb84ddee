package tempoapi

import (
	"net/http"
	"runtime"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/caibirdme/qrygw/pkg/apierror"
	"github.com/caibirdme/qrygw/pkg/chstore"
	"github.com/caibirdme/qrygw/pkg/querycache"
	"github.com/caibirdme/qrygw/pkg/traceql"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// version is stamped at build time via -ldflags; it defaults to "dev" so a
// plain build still answers /api/status/buildinfo with something.
var version = "dev"

// API holds the Tempo-compatible handlers' dependencies: the trace querier
// that does the actual work and the response cache trace-by-ID lookups
// consult first.
type API struct {
	Store *chstore.TraceQuerier
	Cache *querycache.Cache
}

// NewAPI wires a TraceQuerier and response cache into a Tempo-compatible API.
func NewAPI(store *chstore.TraceQuerier, cache *querycache.Cache) *API {
	return &API{Store: store, Cache: cache}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// TraceByID serves GET /api/traces/{traceID}. The original handler content-
// negotiates between the OTLP wire protobuf and its JSON equivalent on
// Accept; re-encoding into the wire protobuf belongs to an external
// collaborator this gateway doesn't own, so every request gets the JSON
// body regardless of Accept.
func (a *API) TraceByID(w http.ResponseWriter, r *http.Request, traceID string) {
	cacheKey := "cc:tr:" + traceID
	if payload, ok := a.Cache.Get(cacheKey); ok {
		writeRaw(w, payload)
		return
	}

	spans, err := a.Store.QueryTrace(r.Context(), traceID)
	if err != nil {
		apierror.WriteError(w, apierror.New(apierror.DBError, err))
		return
	}
	if len(spans) == 0 {
		apierror.WriteError(w, apierror.Newf(apierror.TraceNotFound, "trace %s not found", traceID))
		return
	}

	resp := toTraceByIDResponse(spans)
	payload, err := json.Marshal(resp)
	if err != nil {
		apierror.WriteError(w, apierror.New(apierror.SerdeError, err))
		return
	}
	a.Cache.Set(cacheKey, payload)
	writeRaw(w, payload)
}

func writeRaw(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// Search serves GET /api/search and /api/v2/search: q carries a TraceQL
// expression, searched against the span store and reshaped into Tempo's
// trace-search metadata envelope.
func (a *API) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	expr := q.Get("q")
	if expr == "" {
		writeJSON(w, http.StatusOK, SearchResponse{Traces: []TraceSearchMetadata{}})
		return
	}

	parsed, err := traceql.Parse(expr)
	if err != nil {
		apierror.WriteError(w, apierror.New(apierror.InvalidTraceQL, err))
		return
	}

	spans, err := a.Store.SearchSpan(r.Context(), parsed)
	if err != nil {
		apierror.WriteError(w, apierror.New(apierror.DBError, err))
		return
	}
	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			spans = limitSpans(spans, n)
		}
	}

	writeJSON(w, http.StatusOK, toSearchResponse(spans))
}

// limitSpans caps the span rows fed into toSearchResponse at n, preserving
// order, so limit=N bounds the trace count the same way it does upstream.
func limitSpans(spans []chstore.SpanItem, n int) []chstore.SpanItem {
	if n <= 0 || len(spans) <= n {
		return spans
	}
	seen := make(map[string]struct{}, n)
	out := make([]chstore.SpanItem, 0, len(spans))
	for _, s := range spans {
		if _, ok := seen[s.TraceID]; !ok {
			if len(seen) >= n {
				continue
			}
			seen[s.TraceID] = struct{}{}
		}
		out = append(out, s)
	}
	return out
}

// SearchTags serves GET /api/v2/search/tags. The span table carries no
// series index (see chstore.TraceQuerier.SpanTags), so this always answers
// empty rather than scanning the whole table on every datasource refresh.
func (a *API) SearchTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SearchTagsResponse{TagNames: emptyIfNil(a.Store.SpanTags())})
}

// SearchTagValues serves GET /api/v2/search/tag/{name}/values.
func (a *API) SearchTagValues(w http.ResponseWriter, r *http.Request, tag string) {
	writeJSON(w, http.StatusOK, TagValuesResponse{TagValues: emptyIfNil(a.Store.SpanTagValues(tag))})
}

// Echo serves GET /api/echo, the liveness probe Grafana's Tempo datasource
// issues before running any real query.
func (a *API) Echo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("echo"))
}

// BuildInfo serves GET /api/status/buildinfo.
func (a *API) BuildInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BuildInfoResponse{
		Version:   version,
		Revision:  "",
		GoVersion: runtime.Version(),
	})
}

func emptyIfNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
