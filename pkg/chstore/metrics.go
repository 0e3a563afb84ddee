package chstore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("pkg/chstore")

// queryDuration times every SQL round trip this gateway issues, labeled by
// which backend table it hit and which operation it served, mirroring the
// teacher's query_duration_seconds histogram applied to this gateway's own
// backend instead of an in-process query engine.
var queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "qrygw",
	Subsystem: "chstore",
	Name:      "query_duration_seconds",
	Help:      "ClickHouse round-trip timings by backend and operation.",
	Buckets:   prometheus.DefBuckets,
}, []string{"backend", "operation"})

// startTimer returns a func that observes the elapsed time into
// queryDuration when called, so callers can `defer startTimer(...)()`.
func startTimer(backend, operation string) func() {
	start := time.Now()
	return func() {
		queryDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
	}
}
