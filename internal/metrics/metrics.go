// Package metrics exposes Prometheus instrumentation for a ceremony
// participation: lobby polling, session transitions, contribution time and
// coordinator requests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace is the Prometheus namespace for all metrics.
	Namespace = "tau"

	// Label names
	LabelOutcome  = "outcome"
	LabelState    = "state"
	LabelEndpoint = "endpoint"
	LabelStatus   = "status"
)

// Metrics holds the collectors of one process, registered on their own
// registry so tests can create as many as they like.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	pollAttempts         *prometheus.CounterVec
	transitions          *prometheus.CounterVec
	contributionDuration prometheus.Histogram
	coordinatorRequests  *prometheus.CounterVec
}

// New creates the collectors on a fresh registry. Go runtime and process
// collectors are included.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		pollAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "poll_attempts_total",
				Help:      "Lobby polls by outcome (waiting, assigned, retry, error)",
			},
			[]string{LabelOutcome},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "session_transitions_total",
				Help:      "Session state machine transitions by target state",
			},
			[]string{LabelState},
		),
		contributionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "contribution_duration_seconds",
				Help:      "Time spent validating, updating and signing an assigned batch",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		coordinatorRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "coordinator_requests_total",
				Help:      "Requests to the ceremony coordinator by endpoint and HTTP status",
			},
			[]string{LabelEndpoint, LabelStatus},
		),
	}
}

// ObservePoll records one lobby poll.
func (m *Metrics) ObservePoll(outcome string) {
	if m == nil {
		return
	}
	m.pollAttempts.WithLabelValues(outcome).Inc()
}

// ObserveTransition records the session entering state.
func (m *Metrics) ObserveTransition(state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(state).Inc()
}

// ObserveContribution records how long the Computing state took.
func (m *Metrics) ObserveContribution(d time.Duration) {
	if m == nil {
		return
	}
	m.contributionDuration.Observe(d.Seconds())
}

// ObserveRequest records one coordinator request.
func (m *Metrics) ObserveRequest(endpoint, status string) {
	if m == nil {
		return
	}
	m.coordinatorRequests.WithLabelValues(endpoint, status).Inc()
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
