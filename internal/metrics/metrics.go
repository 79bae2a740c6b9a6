// Package metrics exposes Prometheus collectors for the HTTP layer and the
// coordinate services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geovisor",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geovisor",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Coordinate metrics
	Operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geovisor",
		Subsystem: "crs",
		Name:      "operations_total",
		Help:      "Coordinate operations by name and outcome kind",
	}, []string{"op", "kind"})

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geovisor",
		Subsystem: "crs",
		Name:      "operation_duration_seconds",
		Help:      "Latency of coordinate operations",
		Buckets:   []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.01},
	}, []string{"op"})

	ResolvedSystems = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geovisor",
		Subsystem: "crs",
		Name:      "resolved_systems_total",
		Help:      "Reference systems selected by resolution",
	}, []string{"epsg", "synthesized"})

	CatalogSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geovisor",
		Subsystem: "crs",
		Name:      "catalog_systems",
		Help:      "Number of catalogued reference systems",
	})

	// Export metrics
	ExportRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geovisor",
		Subsystem: "export",
		Name:      "rows_total",
		Help:      "Vertex rows written by exports",
	}, []string{"format"})

	ExportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geovisor",
		Subsystem: "export",
		Name:      "duration_seconds",
		Help:      "Duration of source exports",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"format"})

	ReadoutStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geovisor",
		Subsystem: "readout",
		Name:      "active_streams",
		Help:      "Cursor readout SSE streams currently open",
	})
)

// ObserveOperation records one coordinate operation. kind is "" for success.
func ObserveOperation(op, kind string, start time.Time) {
	if kind == "" {
		kind = "ok"
	}
	Operations.WithLabelValues(op, kind).Inc()
	OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveResolved counts a resolved reference system.
func ObserveResolved(epsg string, synthesized bool) {
	ResolvedSystems.WithLabelValues(epsg, strconv.FormatBool(synthesized)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE responses streaming through the middleware.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Middleware records request metrics. The path label is the matched
// ServeMux pattern, falling back to the raw path.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = r.URL.Path
		}
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the Prometheus /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
