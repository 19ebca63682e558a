package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for RequestsTotal.
const (
	OutcomeSuccess        = "success"
	OutcomeRetried        = "retried"
	OutcomeUnauthorized   = "unauthorized"
	OutcomeResponseError  = "response_error"
	OutcomeTransportError = "transport_error"
	OutcomeDecodeError    = "decode_error"
)

// Result labels for RefreshTotal.
const (
	RefreshSucceeded = "succeeded"
	RefreshFailed    = "failed"
)

// Metrics tracks the authenticated request pipeline.
type Metrics struct {
	RequestsTotal  *prometheus.CounterVec
	RefreshTotal   *prometheus.CounterVec
	RefreshWaiters prometheus.Counter
}

// New registers the pipeline metrics with reg. Passing a fresh
// prometheus.NewRegistry() keeps instances independent.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_client_requests_total",
			Help: "Authenticated requests by final outcome",
		}, []string{"outcome"}),
		RefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_client_token_refresh_total",
			Help: "Calls to the refresh endpoint by result",
		}, []string{"result"}),
		RefreshWaiters: factory.NewCounter(prometheus.CounterOpts{
			Name: "admin_client_token_refresh_waiters_total",
			Help: "Callers that waited on a refresh started by another caller",
		}),
	}
}

// ObserveRequest records the final outcome of one authenticated request.
// Safe on a nil receiver.
func (m *Metrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRefresh(result string) {
	if m == nil {
		return
	}
	m.RefreshTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementRefreshWaiters() {
	if m == nil {
		return
	}
	m.RefreshWaiters.Inc()
}
