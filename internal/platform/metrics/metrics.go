package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	VaultOperations    *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	UsersCreated       prometheus.Counter
	LoginFailures      prometheus.Counter
	UploadsResolved    prometheus.Counter
	UploadDuration     prometheus.Histogram
	AuditEventsDropped prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		VaultOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "keepsafe_vault_operations_total",
			Help: "Vault operations by domain, operation, and outcome",
		}, []string{"domain", "operation", "outcome"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "keepsafe_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "keepsafe_users_created_total",
			Help: "Total number of accounts created",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "keepsafe_login_failures_total",
			Help: "Total number of failed login attempts",
		}),
		UploadsResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "keepsafe_uploads_resolved_total",
			Help: "Files uploaded to the external object store",
		}),
		UploadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "keepsafe_upload_duration_seconds",
			Help:    "Latency of single-file uploads to the object store",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		AuditEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "keepsafe_audit_events_dropped_total",
			Help: "Audit events dropped because the worker inbox was full",
		}),
	}
}

// RecordVaultOp increments the vault operation counter.
func (m *Metrics) RecordVaultOp(domain, operation, outcome string) {
	if m == nil {
		return
	}
	m.VaultOperations.WithLabelValues(domain, operation, outcome).Inc()
}
