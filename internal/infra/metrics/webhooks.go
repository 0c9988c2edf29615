package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(webhooksTotal) }

var webhooksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "webhooks_total",
		Help: "Inbound webhooks by gateway and outcome.",
	},
	[]string{"gateway", "outcome"}, // 'accepted', 'bad_signature', 'misconfigured', 'unknown_reference'
)

func IncWebhook(gateway, outcome string) {
	webhooksTotal.WithLabelValues(norm(gateway), norm(outcome)).Inc()
}
