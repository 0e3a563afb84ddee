package lokiapi

import (
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/caibirdme/qrygw/pkg/apierror"
	"github.com/caibirdme/qrygw/pkg/chstore"
	"github.com/caibirdme/qrygw/pkg/logql"
	"github.com/caibirdme/qrygw/pkg/querycache"
	"github.com/caibirdme/qrygw/pkg/timeparse"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// defaultLogLimit mirrors the original handler's DEFAULT_LIMIT applied when
// a /query_range request omits `limit`.
const defaultLogLimit = 1000

// API holds the Loki-compatible handlers' dependencies: the log querier
// that does the actual work and the response cache.
type API struct {
	Store *chstore.LogQuerier
	Cache *querycache.Cache
}

// NewAPI wires a LogQuerier and response cache into a Loki-compatible API.
func NewAPI(store *chstore.LogQuerier, cache *querycache.Cache) *API {
	return &API{Store: store, Cache: cache}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Query serves GET /query with a sentinel vector response, matching the
// original's loki_is_working handler: Grafana's Loki datasource health
// check only needs a well-formed, non-empty vector result.
func (a *API) Query(w http.ResponseWriter, r *http.Request) {
	now := time.Now().Unix()
	writeJSON(w, http.StatusOK, QueryRangeResponse{
		Status: StatusSuccess,
		Data: VectorResult{
			ResultType: ResultVector,
			Result: []VectorValue{
				{Metric: map[string]string{}, Value: [2]any{now, "2"}},
			},
		},
	})
}

// QueryRange serves GET /query_range: parses the LogQL query, dispatches a
// log-stream or metric query, and reshapes the decoded rows into the
// streams/matrix envelope.
func (a *API) QueryRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("query")
	if len(query) < 6 {
		apierror.WriteError(w, apierror.Newf(apierror.InvalidQueryString, "query too short: %q", query))
		return
	}

	parsed, err := logql.Parse(query)
	if err != nil {
		apierror.WriteError(w, apierror.New(apierror.InvalidLogQL, err))
		return
	}

	limits, err := parseQueryLimits(q, defaultLogLimit)
	if err != nil {
		apierror.WriteError(w, err)
		return
	}

	ctx := r.Context()
	switch {
	case parsed.Metric != nil:
		rows, err := a.Store.QueryMetrics(ctx, *parsed.Metric, limits)
		if err != nil {
			apierror.WriteError(w, apierror.New(apierror.DBError, err))
			return
		}
		writeJSON(w, http.StatusOK, toMetricResponse(rows))
	default:
		rows, err := a.Store.QueryStream(ctx, *parsed.Log, limits)
		if err != nil {
			apierror.WriteError(w, apierror.New(apierror.DBError, err))
			return
		}
		writeJSON(w, http.StatusOK, toStreamResponse(rows))
	}
}

// Labels serves GET /labels, preferring the cache before falling back to
// the series index.
func (a *API) Labels(w http.ResponseWriter, r *http.Request) {
	const cacheKey = "cc:labels"
	if payload, ok := a.Cache.Get(cacheKey); ok {
		if values, err := querycache.DecodeStringList(payload); err == nil {
			writeJSON(w, http.StatusOK, LabelsResponse{Status: StatusSuccess, Data: emptyIfNil(values)})
			return
		}
	}
	labels := a.Store.Labels()
	if len(labels) > 0 {
		if payload, err := encodeLabelsForCache(labels); err == nil {
			a.Cache.Set(cacheKey, payload)
		}
	}
	writeJSON(w, http.StatusOK, LabelsResponse{Status: StatusSuccess, Data: emptyIfNil(labels)})
}

// LabelValues serves GET /label/{name}/values.
func (a *API) LabelValues(w http.ResponseWriter, r *http.Request, label string) {
	cacheKey := querycache.LabelValuesKey(label)
	if payload, ok := a.Cache.Get(cacheKey); ok {
		if values, err := querycache.DecodeStringList(payload); err == nil {
			writeJSON(w, http.StatusOK, LabelsResponse{Status: StatusSuccess, Data: emptyIfNil(values)})
			return
		}
	}
	values := a.Store.LabelValues(label)
	if len(values) > 0 {
		if payload, err := encodeLabelsForCache(values); err == nil {
			a.Cache.Set(cacheKey, payload)
		}
	}
	writeJSON(w, http.StatusOK, LabelsResponse{Status: StatusSuccess, Data: emptyIfNil(values)})
}

// Series serves GET/POST /series: match[] (from the URL query or a POST
// form body) must parse as a LogQL log query, not a metric query; its line
// filters are ignored, and the series store answers directly.
func (a *API) Series(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apierror.WriteError(w, apierror.New(apierror.InvalidQueryString, err))
		return
	}
	matches := r.Form["match[]"]
	if len(matches) > 1 {
		apierror.WriteError(w, apierror.Newf(apierror.MultiMatch, "only one match[] selector is supported, got %d", len(matches)))
		return
	}

	var query *logql.LogQuery
	if len(matches) == 1 && matches[0] != "" {
		parsed, err := logql.Parse(matches[0])
		if err != nil {
			apierror.WriteError(w, apierror.New(apierror.InvalidLogQL, err))
			return
		}
		if parsed.Log == nil {
			apierror.WriteError(w, apierror.Newf(apierror.InvalidQueryString, "match[] must be a bare log selector"))
			return
		}
		query = parsed.Log
	}

	series := a.Store.Series(query)
	writeJSON(w, http.StatusOK, SeriesResponse{Status: StatusSuccess, Data: emptySeriesIfNil(series)})
}

func parseQueryLimits(q map[string][]string, defaultLimit int) (chstore.QueryLimits, error) {
	get := func(key string) string {
		if vs := q[key]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}

	var rng chstore.TimeRange
	if v := get("start"); v != "" {
		t, err := timeparse.Parse(v)
		if err != nil {
			return chstore.QueryLimits{}, apierror.New(apierror.InvalidTimeFormat, err)
		}
		rng.Start = t
	}
	if v := get("end"); v != "" {
		t, err := timeparse.Parse(v)
		if err != nil {
			return chstore.QueryLimits{}, apierror.New(apierror.InvalidTimeFormat, err)
		}
		rng.End = t
	}

	limit := defaultLimit
	if v := get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return chstore.QueryLimits{}, apierror.New(apierror.InvalidQueryString, err)
		}
		limit = n
	}

	direction := chstore.DirectionBackward
	if get("direction") == "forward" {
		direction = chstore.DirectionForward
	}

	var step time.Duration
	if v := get("step"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return chstore.QueryLimits{}, apierror.New(apierror.InvalidQueryString, err)
		}
		step = d
	}

	return chstore.QueryLimits{Limit: limit, Range: rng, Direction: direction, Step: step}, nil
}

func encodeLabelsForCache(values []string) ([]byte, error) {
	return querycache.EncodeStringList(values)
}
