package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Service holds the prometheus collectors exposed on the monitoring endpoint.
type Service struct {
	registry *prometheus.Registry

	AuthAttempts    *prometheus.CounterVec
	SecretAccesses  *prometheus.CounterVec
	TxOutcomes      *prometheus.CounterVec
	BroadcastRounds prometheus.Counter
}

// New creates and registers all collectors on a dedicated registry.
func New() *Service {
	registry := prometheus.NewRegistry()

	s := &Service{
		registry: registry,
		AuthAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "custody",
			Name:      "auth_attempts_total",
			Help:      "Authentication attempts by factor and result.",
		}, []string{"factor", "result"}),
		SecretAccesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "custody",
			Name:      "secret_accesses_total",
			Help:      "Vault secret accesses by operation.",
		}, []string{"operation"}),
		TxOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "custody",
			Name:      "tx_outcomes_total",
			Help:      "Transaction pipeline outcomes by final state and failure kind.",
		}, []string{"state", "kind"}),
		BroadcastRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "custody",
			Name:      "broadcast_rounds_total",
			Help:      "Broadcast submissions including rebroadcasts.",
		}),
	}

	registry.MustRegister(s.AuthAttempts, s.SecretAccesses, s.TxOutcomes, s.BroadcastRounds)
	return s
}

// Registry exposes the underlying registry for the HTTP handler.
func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}

// ObserveTxOutcome records a terminal or broadcast pipeline outcome.
func (s *Service) ObserveTxOutcome(state, kind string) {
	if s == nil {
		return
	}
	s.TxOutcomes.WithLabelValues(state, kind).Inc()
}

// BroadcastRoundsInc counts one broadcast submission.
func (s *Service) BroadcastRoundsInc() {
	if s == nil {
		return
	}
	s.BroadcastRounds.Inc()
}

// ObserveAuthAttempt records an authentication attempt.
func (s *Service) ObserveAuthAttempt(factor string, success bool) {
	if s == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	s.AuthAttempts.WithLabelValues(factor, result).Inc()
}
