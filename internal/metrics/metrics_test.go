package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveOperation(t *testing.T) {
	before := testutil.ToFloat64(Operations.WithLabelValues("project", "ok"))
	ObserveOperation("project", "", time.Now())
	after := testutil.ToFloat64(Operations.WithLabelValues("project", "ok"))
	if after != before+1 {
		t.Fatalf("counter went from %v to %v", before, after)
	}

	before = testutil.ToFloat64(Operations.WithLabelValues("parse_dms", "parse"))
	ObserveOperation("parse_dms", "parse", time.Now())
	if got := testutil.ToFloat64(Operations.WithLabelValues("parse_dms", "parse")); got != before+1 {
		t.Fatalf("parse counter = %v, want %v", got, before+1)
	}
}

func TestMiddlewareRecordsPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/systems/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := Middleware(mux)

	counter := httpRequestsTotal.WithLabelValues("GET", "GET /api/v1/systems/{id}", "404")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/systems/EPSG:1", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("requests_total = %v, want %v", got, before+1)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveResolved("EPSG:32717", false)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `geovisor_crs_resolved_systems_total{epsg="EPSG:32717",synthesized="false"}`) {
		t.Fatalf("resolved systems counter missing from /metrics output")
	}
}
