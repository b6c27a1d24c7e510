package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "grocerytracker"

// PrometheusRecorder exports metrics through a Prometheus registry.
type PrometheusRecorder struct {
	signups          *prometheus.CounterVec
	logins           *prometheus.CounterVec
	recordsCreated   *prometheus.CounterVec
	recordsUpdated   *prometheus.CounterVec
	recordsDeleted   *prometheus.CounterVec
	legacyMigrations *prometheus.CounterVec
	storageDuration  *prometheus.HistogramVec
}

// NewPrometheus registers the application collectors on reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	}

	r := &PrometheusRecorder{
		signups:          counter("signups_total", "Signup attempts by outcome.", "status"),
		logins:           counter("logins_total", "Login attempts by outcome.", "status"),
		recordsCreated:   counter("records_created_total", "Records created by collection.", "collection"),
		recordsUpdated:   counter("records_updated_total", "Records updated by collection.", "collection"),
		recordsDeleted:   counter("records_deleted_total", "Records deleted by collection.", "collection"),
		legacyMigrations: counter("legacy_migrations_total", "Legacy collection migrations by outcome.", "status"),
		storageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_operation_duration_seconds",
			Help:      "Duration of collection storage operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(
		r.signups,
		r.logins,
		r.recordsCreated,
		r.recordsUpdated,
		r.recordsDeleted,
		r.legacyMigrations,
		r.storageDuration,
	)
	return r
}

// IncSignup increments the signup counter for status.
func (r *PrometheusRecorder) IncSignup(status string) {
	r.signups.WithLabelValues(status).Inc()
}

// IncLogin increments the login counter for status.
func (r *PrometheusRecorder) IncLogin(status string) {
	r.logins.WithLabelValues(status).Inc()
}

// IncRecordCreated increments the created counter for kind.
func (r *PrometheusRecorder) IncRecordCreated(kind string) {
	r.recordsCreated.WithLabelValues(kind).Inc()
}

// IncRecordUpdated increments the updated counter for kind.
func (r *PrometheusRecorder) IncRecordUpdated(kind string) {
	r.recordsUpdated.WithLabelValues(kind).Inc()
}

// IncRecordDeleted increments the deleted counter for kind.
func (r *PrometheusRecorder) IncRecordDeleted(kind string) {
	r.recordsDeleted.WithLabelValues(kind).Inc()
}

// ObserveStorageDuration records storage operation duration.
func (r *PrometheusRecorder) ObserveStorageDuration(op string, duration time.Duration) {
	r.storageDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// IncLegacyMigration increments the migration counter for status.
func (r *PrometheusRecorder) IncLegacyMigration(status string) {
	r.legacyMigrations.WithLabelValues(status).Inc()
}
