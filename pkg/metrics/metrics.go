// Package metrics exposes Prometheus instrumentation for the
// governance engine.
package metrics

import (
	"math/big"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Viyale/KeeperCoin/pkg/governance"
)

// Metrics holds all Prometheus metrics for the governance engine.
type Metrics struct {
	proposalsTotal   *prometheus.CounterVec
	votesTotal       *prometheus.CounterVec
	executionsTotal  *prometheus.CounterVec
	burnedTotal      *prometheus.CounterVec
	withdrawalsTotal prometheus.Counter

	registry *prometheus.Registry
}

// New creates a metrics instance with all governance metrics
// registered on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		proposalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keepercoin_proposals_total",
				Help: "Total number of proposals created by type",
			},
			[]string{"type"},
		),
		votesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keepercoin_votes_total",
				Help: "Total number of votes cast by support",
			},
			[]string{"support"},
		),
		executionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keepercoin_executions_total",
				Help: "Total number of proposal executions by type and outcome",
			},
			[]string{"type", "applied"},
		),
		burnedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keepercoin_burned_tokens_total",
				Help: "Tokens destroyed by burn kind, in whole tokens",
			},
			[]string{"kind"},
		),
		withdrawalsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "keepercoin_developer_withdrawals_total",
				Help: "Total number of executed developer withdrawals",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.proposalsTotal,
		m.votesTotal,
		m.executionsTotal,
		m.burnedTotal,
		m.withdrawalsTotal,
	)
	return m
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Sink adapts Metrics to the governance event stream.
type Sink struct {
	metrics *Metrics
}

// NewSink creates an event sink feeding the metrics.
func NewSink(m *Metrics) *Sink {
	return &Sink{metrics: m}
}

// Emit updates the counters matching the event.
func (s *Sink) Emit(event governance.Event) {
	switch payload := event.Payload.(type) {
	case governance.ProposalCreated:
		s.metrics.proposalsTotal.WithLabelValues(string(payload.Type)).Inc()
	case governance.VoteCast:
		s.metrics.votesTotal.WithLabelValues(boolLabel(payload.Support)).Inc()
	case governance.ProposalExecuted:
		s.metrics.executionsTotal.WithLabelValues(string(payload.Type), boolLabel(payload.Applied)).Inc()
	case governance.AnnualBurnExecuted:
		s.metrics.burnedTotal.WithLabelValues("annual").Add(wholeTokens(payload.Amount))
	case governance.WithdrawalExecuted:
		s.metrics.withdrawalsTotal.Inc()
		s.metrics.burnedTotal.WithLabelValues("withdrawal").Add(wholeTokens(payload.Burned))
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// wholeTokens converts base units into whole tokens for counter
// arithmetic; precision loss is acceptable for observability.
func wholeTokens(amount *big.Int) float64 {
	f, _ := new(big.Float).Quo(
		new(big.Float).SetInt(amount),
		new(big.Float).SetInt(governance.Tokens(1)),
	).Float64()
	return f
}
