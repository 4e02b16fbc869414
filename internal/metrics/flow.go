package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OAuth flow metrics. Kept in a standalone package so the oauth core and the
// HTTP layer can both record without an import cycle.

var (
	FlowTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authbridge_flow_transitions_total",
		Help: "Transiciones del state machine de login por provider y estado destino",
	}, []string{"provider", "state"})

	FlowFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authbridge_flow_failures_total",
		Help: "Intentos de login fallidos por provider y clase de error",
	}, []string{"provider", "kind"})

	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "authbridge_provider_request_duration_seconds",
		Help:    "Latencia de las operaciones contra el provider externo",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"provider", "op"})
)

// Register registers the flow metrics on the given registry (or default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{FlowTransitions, FlowFailures, ProviderRequestDuration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

func RecordTransition(provider, state string) {
	FlowTransitions.WithLabelValues(provider, state).Inc()
}

func RecordFailure(provider, kind string) {
	FlowFailures.WithLabelValues(provider, kind).Inc()
}

func ObserveProviderRequest(provider, op string, d time.Duration) {
	ProviderRequestDuration.WithLabelValues(provider, op).Observe(d.Seconds())
}
