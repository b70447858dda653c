package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMiddlewareRecordsRequestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCorrelatorCollector(reg)
	if err != nil {
		t.Fatalf("NewCorrelatorCollector: %v", err)
	}

	router := chi.NewRouter()
	router.Use(collector.Middleware)
	router.Get("/v1/alerts/{index}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/alerts/7", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/v1/alerts/{index}", "GET", "200")); got != 1 {
		t.Fatalf("correlator_http_requests_total = %v, want 1", got)
	}

	if count := histogramSampleCount(t, reg, "correlator_http_request_duration_seconds", map[string]string{
		"route":  "/v1/alerts/{index}",
		"method": "GET",
	}); count != 1 {
		t.Fatalf("correlator_http_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestMiddlewareRecordsErrorStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCorrelatorCollector(reg)
	if err != nil {
		t.Fatalf("NewCorrelatorCollector: %v", err)
	}

	router := chi.NewRouter()
	router.Use(collector.Middleware)
	router.Post("/v1/correlate", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusUnprocessableEntity)
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/correlate", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/v1/correlate", "POST", "422")); got != 1 {
		t.Fatalf("correlator_http_requests_total error label = %v, want 1", got)
	}
}

func TestPipelineRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCorrelatorCollector(reg)
	if err != nil {
		t.Fatalf("NewCorrelatorCollector: %v", err)
	}

	collector.ObservePipelineStage("build_graph", 0.01)
	collector.ObservePipelineStage("build_graph", 0.02)
	collector.SetPipelineCounts(12, 3, 2)

	if count := histogramSampleCount(t, reg, "correlator_pipeline_stage_duration_seconds", map[string]string{
		"stage": "build_graph",
	}); count != 2 {
		t.Fatalf("stage duration sample_count = %d, want 2", count)
	}

	if got := testutil.ToFloat64(collector.CatalogAlerts); got != 12 {
		t.Fatalf("correlator_catalog_alerts = %v, want 12", got)
	}
	if got := testutil.ToFloat64(collector.MultipletGroups); got != 3 {
		t.Fatalf("correlator_multiplet_groups = %v, want 3", got)
	}
	if got := testutil.ToFloat64(collector.ResolvedConflicts); got != 2 {
		t.Fatalf("correlator_resolved_conflicts = %v, want 2", got)
	}
}

func TestMetricsHandlerExposesPipelineGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCorrelatorCollector(reg)
	if err != nil {
		t.Fatalf("NewCorrelatorCollector: %v", err)
	}
	collector.SetPipelineCounts(3, 4, 5)
	collector.HTTPRequests.WithLabelValues("/healthz", "GET", "200").Inc()
	collector.ObservePipelineStage("aggregate", 0.001)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"correlator_http_requests_total",
		"correlator_pipeline_stage_duration_seconds",
		"correlator_catalog_alerts",
		"correlator_multiplet_groups",
		"correlator_resolved_conflicts",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestDoubleRegistrationReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCorrelatorCollector(reg)
	if err != nil {
		t.Fatalf("NewCorrelatorCollector: %v", err)
	}
	second, err := NewCorrelatorCollector(reg)
	if err != nil {
		t.Fatalf("NewCorrelatorCollector (second): %v", err)
	}

	first.HTTPRequests.WithLabelValues("/healthz", "GET", "200").Inc()
	second.HTTPRequests.WithLabelValues("/healthz", "GET", "200").Inc()

	if got := testutil.ToFloat64(first.HTTPRequests.WithLabelValues("/healthz", "GET", "200")); got != 2 {
		t.Fatalf("shared counter = %v, want 2", got)
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
