package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequestsTotal       *prometheus.CounterVec
	CheckoutSessionsCreated prometheus.Counter
	AccessDecisionsTotal    *prometheus.CounterVec
	SnapshotRunsTotal       *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "funnelgate_http_requests_total",
			Help: "Total number of HTTP requests handled",
		}, []string{"path", "status"}),
		CheckoutSessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "funnelgate_checkout_sessions_created_total",
			Help: "Total number of checkout sessions created with the provider",
		}),
		AccessDecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "funnelgate_access_decisions_total",
			Help: "Access gate decisions by outcome",
		}, []string{"outcome"}),
		SnapshotRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "funnelgate_snapshot_runs_total",
			Help: "Snapshot pipeline runs by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) RecordRequest(path, status string) {
	m.HTTPRequestsTotal.WithLabelValues(path, status).Inc()
}

func (m *Metrics) RecordDecision(outcome string) {
	m.AccessDecisionsTotal.WithLabelValues(outcome).Inc()
}
