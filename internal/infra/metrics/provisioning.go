package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		provisioningAttempts,
		provisioningDuration,
	)
}

var (
	provisioningAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provisioning_attempts_total",
			Help: "Provisioning attempts by action and outcome.",
		},
		[]string{"action", "outcome"}, // outcome: 'success'|'rejected'|'transport'
	)

	provisioningDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "provisioning_duration_seconds",
			Help:    "Latency of upstream panel calls.",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30},
		},
	)
)

func IncProvisioning(action, outcome string) {
	provisioningAttempts.WithLabelValues(norm(action), norm(outcome)).Inc()
}

func ObserveProvisioning(seconds float64) {
	provisioningDuration.Observe(seconds)
}
