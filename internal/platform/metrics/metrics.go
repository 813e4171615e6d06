package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Constructed once
// in main; collaborators that receive a nil *Metrics skip observation.
type Metrics struct {
	SignUps          *prometheus.CounterVec
	SignIns          *prometheus.CounterVec
	SignOuts         prometheus.Counter
	ProviderDuration *prometheus.HistogramVec
	RequestDuration  *prometheus.HistogramVec
	Lockouts         prometheus.Counter
	AuditDropped     prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		SignUps: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_sign_ups_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),
		SignIns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_sign_ins_total",
			Help: "Sign-in attempts by method and outcome",
		}, []string{"method", "outcome"}),
		SignOuts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "authgate_sign_outs_total",
			Help: "Completed sign-outs",
		}),
		ProviderDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authgate_provider_request_duration_seconds",
			Help:    "Identity provider round-trip latency by operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authgate_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		Lockouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "authgate_lockouts_triggered_total",
			Help: "Sign-in lockouts triggered",
		}),
		AuditDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "authgate_audit_events_dropped_total",
			Help: "Audit events dropped because the buffer was full",
		}),
	}
}

// ObserveSignUp records a registration attempt outcome.
func (m *Metrics) ObserveSignUp(outcome string) {
	if m == nil {
		return
	}
	m.SignUps.WithLabelValues(outcome).Inc()
}

// ObserveSignIn records a sign-in attempt by method ("password", "google").
func (m *Metrics) ObserveSignIn(method, outcome string) {
	if m == nil {
		return
	}
	m.SignIns.WithLabelValues(method, outcome).Inc()
}

// ObserveSignOut records a completed sign-out.
func (m *Metrics) ObserveSignOut() {
	if m == nil {
		return
	}
	m.SignOuts.Inc()
}

// ObserveProvider records one provider round-trip.
func (m *Metrics) ObserveProvider(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveRequest records one handled HTTP request.
func (m *Metrics) ObserveRequest(route, method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, method, status).Observe(d.Seconds())
}

// ObserveLockout records a triggered lockout.
func (m *Metrics) ObserveLockout() {
	if m == nil {
		return
	}
	m.Lockouts.Inc()
}

// ObserveAuditDrop records a dropped audit event.
func (m *Metrics) ObserveAuditDrop() {
	if m == nil {
		return
	}
	m.AuditDropped.Inc()
}
