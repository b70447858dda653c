package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/signalsfoundry/alert-correlator/catalog"
	"github.com/signalsfoundry/alert-correlator/core"
	"github.com/signalsfoundry/alert-correlator/internal/api"
	"github.com/signalsfoundry/alert-correlator/internal/logging"
	"github.com/signalsfoundry/alert-correlator/internal/observability"
)

func main() {
	httpAddr := flag.String("http-addr", ":8080", "TCP address the API server listens on")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	catalogPath := flag.String("catalog", "", "optional path to a JSON alert catalog loaded at startup")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	collector, err := observability.NewCorrelatorCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}

	metricsSrv := serveMetrics(*metricsAddr, collector, log)

	cat := catalog.New()
	loadCatalog(log, cat, *catalogPath)

	correlator := core.NewCorrelator(cat, log)
	correlator.Metrics = collector

	server := api.NewServer(cat, correlator, log)
	handler := otelhttp.NewHandler(server.Router(collector.Middleware), "correlator-api")

	apiSrv := &http.Server{
		Addr:    *httpAddr,
		Handler: handler,
	}

	log.Info(ctx, "starting API server", logging.String("addr", *httpAddr))
	go func() {
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "API server exited", logging.String("error", err.Error()))
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-stopCtx.Done()

	log.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
}

func serveMetrics(addr string, collector *observability.CorrelatorCollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

// loadCatalog seeds the catalog from disk when a path is given. Failures are
// logged and skipped so the server still comes up empty.
func loadCatalog(log logging.Logger, cat *catalog.Catalog, path string) {
	if path == "" {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		log.Warn(context.Background(), "skipping catalog load", logging.String("path", path), logging.String("error", err.Error()))
		return
	}
	defer f.Close()

	summary, err := core.LoadAlertCatalog(cat, f)
	if err != nil {
		log.Warn(context.Background(), "failed to load catalog", logging.String("path", path), logging.String("error", err.Error()))
		return
	}
	log.Info(context.Background(), "catalog loaded", logging.String("path", path), logging.Int("alerts", len(summary.Indices)))
}
