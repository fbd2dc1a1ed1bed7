package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	adminRequestsTotal  *prometheus.CounterVec
	adminLatencySeconds *prometheus.HistogramVec
	adminErrorsTotal    *prometheus.CounterVec
	invitationsIssued   prometheus.Counter
	tokenCollisions     prometheus.Counter
	statusTransitions   *prometheus.CounterVec
	emailDeliveries     *prometheus.CounterVec
	assessmentsScored   *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		invitationsIssued = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "talent_invitations_issued_total",
			Help: "Assessment links issued to candidates.",
		})

		tokenCollisions = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "talent_token_collisions_total",
			Help: "Assessment token uniqueness violations that forced a regenerate.",
		})

		statusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "talent_status_transitions_total",
			Help: "Candidate status transitions recorded.",
		}, []string{"from", "to"})

		emailDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "talent_email_deliveries_total",
			Help: "Transactional email hand-offs by template and result.",
		}, []string{"template", "result"})

		assessmentsScored = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "talent_assessments_scored_total",
			Help: "Finalized assessments by disposition.",
		}, []string{"disposition"})

		prometheus.MustRegister(
			adminRequestsTotal,
			adminLatencySeconds,
			adminErrorsTotal,
			invitationsIssued,
			tokenCollisions,
			statusTransitions,
			emailDeliveries,
			assessmentsScored,
		)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}

// InvitationsIssued counts issued assessment links.
func InvitationsIssued() prometheus.Counter {
	RegisterMetrics()
	return invitationsIssued
}

// TokenCollisions counts regenerated tokens.
func TokenCollisions() prometheus.Counter {
	RegisterMetrics()
	return tokenCollisions
}

// StatusTransitions counts candidate status changes.
func StatusTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return statusTransitions
}

// EmailDeliveries counts email hand-offs.
func EmailDeliveries() *prometheus.CounterVec {
	RegisterMetrics()
	return emailDeliveries
}

// AssessmentsScored counts finalized assessments.
func AssessmentsScored() *prometheus.CounterVec {
	RegisterMetrics()
	return assessmentsScored
}
