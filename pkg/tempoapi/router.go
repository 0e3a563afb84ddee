package tempoapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/caibirdme/qrygw/pkg/util/constants"
)

// Router builds a standalone Tempo-compatible route table. Most
// deployments call RegisterRoutes directly against a shared router
// instead (see cmd/qrygw), so the Loki surface can be mounted alongside it.
func (a *API) Router(requestTimeout time.Duration) *mux.Router {
	r := mux.NewRouter()
	a.RegisterRoutes(r, requestTimeout)
	return r
}

// RegisterRoutes wires every Tempo-compatible handler onto r, mirroring
// lokiapi's per-route request timeout wiring.
func (a *API) RegisterRoutes(r *mux.Router, requestTimeout time.Duration) {
	withTimeout := func(name string, h http.HandlerFunc) http.Handler {
		return timeoutMiddleware(requestTimeout, name, h)
	}

	r.Handle(constants.PathTempoTraceByID, withTimeout("trace_by_id", a.traceByIDHandler())).Methods(http.MethodGet)
	r.Handle(constants.PathTempoSearch, withTimeout("search", a.Search)).Methods(http.MethodGet)
	r.Handle(constants.PathTempoSearchV2, withTimeout("search_v2", a.Search)).Methods(http.MethodGet)
	r.Handle(constants.PathTempoSearchTags, withTimeout("search_tags", a.SearchTags)).Methods(http.MethodGet)
	r.Handle(constants.PathTempoSearchTagValues, withTimeout("search_tag_values", a.searchTagValuesHandler())).Methods(http.MethodGet)
	r.HandleFunc(constants.PathTempoEcho, a.Echo).Methods(http.MethodGet)
	r.HandleFunc(constants.PathTempoBuildInfo, a.BuildInfo).Methods(http.MethodGet)
}

func (a *API) traceByIDHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.TraceByID(w, r, mux.Vars(r)["traceID"])
	}
}

func (a *API) searchTagValuesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.SearchTagValues(w, r, mux.Vars(r)["name"])
	}
}

func timeoutMiddleware(d time.Duration, name string, h http.HandlerFunc) http.Handler {
	if d <= 0 {
		return h
	}
	return http.TimeoutHandler(h, d, "timed out handling "+name)
}
