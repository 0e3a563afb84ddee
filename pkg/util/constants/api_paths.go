// Package constants centralizes the HTTP route paths the gateway's two
// API surfaces register, so the router wiring and any documentation/tests
// referencing a route share one literal.
package constants

// Loki-compatible route paths. Ingest, rules, delete-request, tailing and
// pattern/detected-field routes are excluded: this gateway only ever reads
// from its backing store, never writes to or watches it.
const (
	PathLokiQuery      = "/loki/api/v1/query"
	PathLokiQueryRange = "/loki/api/v1/query_range"
	PathLokiSeries     = "/loki/api/v1/series"
	PathLokiLabels     = "/loki/api/v1/labels"
	PathLokiLabel      = "/loki/api/v1/label/{name}"
	PathLokiLabelValues = "/loki/api/v1/label/{name}/values"
	PathReady          = "/ready"
	PathMetrics        = "/metrics"
)

// Tempo-compatible route paths.
const (
	PathTempoTraceByID      = "/api/traces/{traceID}"
	PathTempoSearch         = "/api/search"
	PathTempoSearchV2       = "/api/v2/search"
	PathTempoSearchTags     = "/api/v2/search/tags"
	PathTempoSearchTagValues = "/api/v2/search/tag/{name}/values"
	PathTempoEcho           = "/api/echo"
	PathTempoBuildInfo      = "/api/status/buildinfo"
)
