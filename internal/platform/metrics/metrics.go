package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CustomersCreated   prometheus.Counter
	CustomersDeleted   prometheus.Counter
	SignaturesEnrolled prometheus.Counter
	Verifications      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CustomersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_customers_created_total",
			Help: "Total number of customers enrolled in the system",
		}),
		CustomersDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_customers_deleted_total",
			Help: "Total number of customers removed via cascade delete",
		}),
		SignaturesEnrolled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_signatures_enrolled_total",
			Help: "Total number of reference signatures enrolled",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signet_verifications_total",
			Help: "Total verification decisions by outcome",
		}, []string{"outcome"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signet_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// IncrementVerification records one decision with the given outcome
// ("passed" or "failed").
func (m *Metrics) IncrementVerification(outcome string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(outcome).Inc()
}

// IncrementCustomersCreated increments the customers created counter by 1.
func (m *Metrics) IncrementCustomersCreated() {
	if m == nil {
		return
	}
	m.CustomersCreated.Inc()
}

// IncrementCustomersDeleted increments the customers deleted counter by 1.
func (m *Metrics) IncrementCustomersDeleted() {
	if m == nil {
		return
	}
	m.CustomersDeleted.Inc()
}

// IncrementSignaturesEnrolled increments the enrollment counter by 1.
func (m *Metrics) IncrementSignaturesEnrolled() {
	if m == nil {
		return
	}
	m.SignaturesEnrolled.Inc()
}
