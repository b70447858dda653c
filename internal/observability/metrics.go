package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CorrelatorCollector bundles Prometheus metrics for the correlator and
// provides helpers to wire them into the HTTP API and the pipeline.
type CorrelatorCollector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	StageDurations *prometheus.HistogramVec

	CatalogAlerts     prometheus.Gauge
	MultipletGroups   prometheus.Gauge
	ResolvedConflicts prometheus.Gauge
}

// NewCorrelatorCollector registers correlator Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewCorrelatorCollector(reg prometheus.Registerer) (*CorrelatorCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "correlator_http_requests_total",
		Help: "Total number of handled API requests, labeled by route, method, and status code.",
	}, []string{"route", "method", "code"})
	requests, err := registerCounterVec(reg, requests, "correlator_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "correlator_http_request_duration_seconds",
		Help:    "API request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route", "method"})
	durations, err = registerHistogramVec(reg, durations, "correlator_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	stages := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "correlator_pipeline_stage_duration_seconds",
		Help:    "Duration of each correlation pipeline stage in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"stage"})
	stages, err = registerHistogramVec(reg, stages, "correlator_pipeline_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	alerts, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "correlator_catalog_alerts",
		Help: "Number of alerts in the catalog snapshot of the latest run.",
	}), "correlator_catalog_alerts")
	if err != nil {
		return nil, err
	}
	groups, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "correlator_multiplet_groups",
		Help: "Number of non-empty multiplet groups produced by the latest run.",
	}), "correlator_multiplet_groups")
	if err != nil {
		return nil, err
	}
	conflicts, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "correlator_resolved_conflicts",
		Help: "Number of alerts whose group was cleared by conflict resolution in the latest run.",
	}), "correlator_resolved_conflicts")
	if err != nil {
		return nil, err
	}

	return &CorrelatorCollector{
		gatherer:          gatherer,
		HTTPRequests:      requests,
		HTTPDurations:     durations,
		StageDurations:    stages,
		CatalogAlerts:     alerts,
		MultipletGroups:   groups,
		ResolvedConflicts: conflicts,
	}, nil
}

// Middleware records request counts and durations for API handlers. The
// route label is resolved from the chi route context after the handler ran,
// so patterns like /v1/alerts/{index} stay low-cardinality.
func (c *CorrelatorCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chiRouteContext(r); rctx != "" {
			route = rctx
		}
		code := fmt.Sprintf("%d", ww.Status())

		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(route, r.Method, code).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler exposes a ready-to-use /metrics handler.
func (c *CorrelatorCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObservePipelineStage satisfies core.PipelineRecorder.
func (c *CorrelatorCollector) ObservePipelineStage(stage string, seconds float64) {
	if c == nil || c.StageDurations == nil {
		return
	}
	c.StageDurations.WithLabelValues(stage).Observe(seconds)
}

// SetPipelineCounts satisfies core.PipelineRecorder so the correlator can
// drive gauge values directly after each run.
func (c *CorrelatorCollector) SetPipelineCounts(alerts, groups, conflicts int) {
	if c == nil {
		return
	}
	if c.CatalogAlerts != nil {
		c.CatalogAlerts.Set(float64(alerts))
	}
	if c.MultipletGroups != nil {
		c.MultipletGroups.Set(float64(groups))
	}
	if c.ResolvedConflicts != nil {
		c.ResolvedConflicts.Set(float64(conflicts))
	}
}

// chiRouteContext resolves the matched chi route pattern, or "" when the
// request was not routed through chi.
func chiRouteContext(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
