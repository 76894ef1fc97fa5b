package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for openibn.
type Metrics struct {
	config MetricsConfig

	// Remote call metrics
	remoteCalls        *prometheus.CounterVec
	remoteCallDuration *prometheus.HistogramVec
	remoteCallErrors   *prometheus.CounterVec

	// Reconciliation metrics
	reconciles        *prometheus.CounterVec
	reconcileDuration *prometheus.HistogramVec

	// Intent operation metrics (audit/synchronize)
	intentOperations *prometheus.CounterVec

	// Bundle upload metrics
	bundleUploads *prometheus.CounterVec

	// Cascade deletion metrics
	cascadeDeletedIntents prometheus.Counter

	// Error metrics
	errorsByClass *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		remoteCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_calls_total",
				Help:      "Total number of RESTCONF requests sent to the controller",
			},
			[]string{"method", "status"},
		),
		remoteCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_call_duration_seconds",
				Help:      "Duration of RESTCONF requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		remoteCallErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_call_errors_total",
				Help:      "Total number of failed RESTCONF requests",
			},
			[]string{"method"},
		),

		reconciles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconciles_total",
				Help:      "Total number of intent reconciliations",
			},
			[]string{"operation", "outcome"},
		),
		reconcileDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reconcile_duration_seconds",
				Help:      "Duration of intent reconciliations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		intentOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "intent_operations_total",
				Help:      "Total number of audit/synchronize operations run",
			},
			[]string{"operation", "status"},
		),

		bundleUploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bundle_uploads_total",
				Help:      "Total number of intent-type bundle uploads",
			},
			[]string{"status"},
		),

		cascadeDeletedIntents: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cascade_deleted_intents_total",
				Help:      "Total number of intents deleted by forced intent-type deletion",
			},
		),

		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),
	}

	registry.MustRegister(
		m.remoteCalls,
		m.remoteCallDuration,
		m.remoteCallErrors,
		m.reconciles,
		m.reconcileDuration,
		m.intentOperations,
		m.bundleUploads,
		m.cascadeDeletedIntents,
		m.errorsByClass,
	)

	return m, nil
}

// RecordRemoteCall records a completed RESTCONF request.
func (m *Metrics) RecordRemoteCall(method string, status int, duration time.Duration) {
	if m.remoteCalls == nil {
		return
	}
	m.remoteCalls.WithLabelValues(method, fmt.Sprintf("%d", status)).Inc()
	m.remoteCallDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordRemoteCallError records a RESTCONF request that failed without a status.
func (m *Metrics) RecordRemoteCallError(method string) {
	if m.remoteCallErrors == nil {
		return
	}
	m.remoteCallErrors.WithLabelValues(method).Inc()
}

// RecordReconcile records an intent reconciliation with its outcome.
func (m *Metrics) RecordReconcile(operation, outcome string, duration time.Duration) {
	if m.reconciles == nil {
		return
	}
	m.reconciles.WithLabelValues(operation, outcome).Inc()
	m.reconcileDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordIntentOperation records an audit or synchronize run.
func (m *Metrics) RecordIntentOperation(operation, status string) {
	if m.intentOperations == nil {
		return
	}
	m.intentOperations.WithLabelValues(operation, status).Inc()
}

// RecordBundleUpload records an intent-type bundle upload.
func (m *Metrics) RecordBundleUpload(status string) {
	if m.bundleUploads == nil {
		return
	}
	m.bundleUploads.WithLabelValues(status).Inc()
}

// RecordCascadeDeletedIntent counts one intent removed by a forced
// intent-type deletion.
func (m *Metrics) RecordCascadeDeletedIntent() {
	if m.cascadeDeletedIntents == nil {
		return
	}
	m.cascadeDeletedIntents.Inc()
}

// RecordError records an error by class.
func (m *Metrics) RecordError(errorClass string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass).Inc()
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
