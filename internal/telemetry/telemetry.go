package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/horizon/config"
)

// Metrics groups the counters recorded by the scan pipeline. Every method is
// a no-op on a nil receiver so callers need no guards.
type Metrics struct {
	registry *prometheus.Registry

	jobs              *prometheus.CounterVec
	jobPolls          prometheus.Counter
	searchAttempts    *prometheus.CounterVec
	searchFallbacks   prometheus.Counter
	scenarioFallbacks prometheus.Counter
	signals           *prometheus.CounterVec
}

// NewMetrics registers all counters on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "horizon_jobs_total",
			Help: "Generative jobs by terminal outcome.",
		}, []string{"outcome"}),
		jobPolls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "horizon_job_polls_total",
			Help: "Status polls issued against generative jobs.",
		}),
		searchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "horizon_search_attempts_total",
			Help: "Search requests by outcome.",
		}, []string{"outcome"}),
		searchFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "horizon_search_endpoint_fallbacks_total",
			Help: "Switches from the primary to the legacy search endpoint.",
		}),
		scenarioFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "horizon_scenario_fallbacks_total",
			Help: "Scenario scoring runs that used the local heuristic.",
		}),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "horizon_signals_total",
			Help: "Weak signals collected per lens.",
		}, []string{"category"}),
	}
	reg.MustRegister(m.jobs, m.jobPolls, m.searchAttempts, m.searchFallbacks, m.scenarioFallbacks, m.signals)
	return m
}

func (m *Metrics) JobFinished(outcome string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) JobPolled() {
	if m == nil {
		return
	}
	m.jobPolls.Inc()
}

func (m *Metrics) SearchAttempt(outcome string) {
	if m == nil {
		return
	}
	m.searchAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SearchEndpointFallback() {
	if m == nil {
		return
	}
	m.searchFallbacks.Inc()
}

func (m *Metrics) ScenarioFallback() {
	if m == nil {
		return
	}
	m.scenarioFallbacks.Inc()
}

func (m *Metrics) SignalsCollected(category string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.signals.WithLabelValues(category).Add(float64(n))
}

// Registry exposes the underlying registry for tests and custom handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on cfg.MetricsPort until ctx is done. It returns
// immediately when telemetry is disabled.
func (m *Metrics) Serve(ctx context.Context, cfg config.TelemetryConfig) error {
	if !cfg.Enabled || cfg.MetricsPort <= 0 {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
