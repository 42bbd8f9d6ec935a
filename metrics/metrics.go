package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ruteri/simpleweb/interfaces"
)

// Upload results recorded by ObserveUpload.
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// MetricsServer serves Prometheus metrics from a private registry.
type MetricsServer struct {
	registry *prometheus.Registry
	srv      *http.Server

	uploads       *prometheus.CounterVec
	uploadBytes   prometheus.Counter
	healthChecks  *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
}

// New creates a metrics server listening on addr. Collectors are usable even
// when the server is never started.
func New(namespace, addr string) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()

	m := &MetricsServer{
		registry: registry,
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploads handled, by result.",
		}, []string{"result"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes accepted by successful uploads.",
		}),
		healthChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "health_checks_total",
			Help:      "Health checks performed, by overall status.",
		}, []string{"status"}),
		probeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Duration of individual health probes.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"probe", "status"}),
	}

	for _, c := range []prometheus.Collector{
		m.uploads,
		m.uploadBytes,
		m.healthChecks,
		m.probeDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	mux := chi.NewRouter()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	m.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return m, nil
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsServer) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveUpload records the outcome of one upload.
func (m *MetricsServer) ObserveUpload(result string, size int64) {
	m.uploads.WithLabelValues(result).Inc()
	if result == ResultOK && size > 0 {
		m.uploadBytes.Add(float64(size))
	}
}

// ObserveHealth records an aggregate health check.
func (m *MetricsServer) ObserveHealth(status interfaces.HealthStatus) {
	m.healthChecks.WithLabelValues(status.String()).Inc()
}

// ObserveProbe records a single probe result. It matches health.Observer.
func (m *MetricsServer) ObserveProbe(result interfaces.ProbeResult) {
	m.probeDuration.WithLabelValues(result.Name, result.Status.String()).Observe(result.Duration.Seconds())
}

// ListenAndServe blocks serving /metrics.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics listener.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
