package lokiapi

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caibirdme/qrygw/pkg/apierror"
	"github.com/caibirdme/qrygw/pkg/util/constants"
)

// Router builds a standalone Loki-compatible route table. Most deployments
// call RegisterRoutes directly against a shared router instead (see
// cmd/qrygw), so the Tempo surface can be mounted alongside it.
func (a *API) Router(requestTimeout time.Duration) *mux.Router {
	r := mux.NewRouter()
	a.RegisterRoutes(r, requestTimeout)
	return r
}

// RegisterRoutes wires every Loki-compatible handler onto r, each wrapped
// in a request-level timeout. /ready and /metrics are registered alongside
// the Loki routes since this gateway exposes them on the same listener.
func (a *API) RegisterRoutes(r *mux.Router, requestTimeout time.Duration) {
	withTimeout := func(name string, h http.HandlerFunc) http.Handler {
		return timeoutMiddleware(requestTimeout, name, h)
	}

	r.Handle(constants.PathLokiQuery, withTimeout("query", a.Query)).Methods(http.MethodGet)
	r.Handle(constants.PathLokiQueryRange, withTimeout("query_range", a.QueryRange)).Methods(http.MethodGet)
	r.Handle(constants.PathLokiLabels, withTimeout("labels", a.Labels)).Methods(http.MethodGet)
	r.Handle(constants.PathLokiLabelValues, withTimeout("label_values", a.labelValuesHandler())).Methods(http.MethodGet)
	r.Handle(constants.PathLokiSeries, withTimeout("series", a.Series)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc(constants.PathReady, readyHandler).Methods(http.MethodGet)
	r.Handle(constants.PathMetrics, promhttp.Handler()).Methods(http.MethodGet)
}

// Gzip wraps a handler (typically the full Router) with response gzip
// compression, matching the teacher's gziphandler use.
func Gzip(h http.Handler) http.Handler {
	return gziphandler.GzipHandler(h)
}

// GunzipRequest wraps h so a request body sent with Content-Encoding: gzip
// (POST /series's match[] form body, most notably) is transparently
// decompressed before h sees it, the request-side counterpart to Gzip's
// response compression.
func GunzipRequest(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
			h.ServeHTTP(w, r)
			return
		}
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			apierror.WriteError(w, apierror.New(apierror.IOError, err))
			return
		}
		defer gz.Close()
		r.Body = io.NopCloser(gz)
		r.Header.Del("Content-Encoding")
		r.ContentLength = -1
		h.ServeHTTP(w, r)
	})
}

func (a *API) labelValuesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		a.LabelValues(w, r, name)
	}
}

func readyHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// timeoutMiddleware wraps h so it is canceled at its next suspension point
// if it runs past d; a zero d disables the timeout.
func timeoutMiddleware(d time.Duration, name string, h http.HandlerFunc) http.Handler {
	if d <= 0 {
		return h
	}
	return http.TimeoutHandler(h, d, "timed out handling "+name)
}
