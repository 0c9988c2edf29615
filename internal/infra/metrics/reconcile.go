package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		reconcileTotal,
		reconcileShortCircuits,
	)
}

var (
	reconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_total",
			Help: "Reconciliation outcomes by entry point and result.",
		},
		[]string{"entry", "result"}, // entry: 'webhook'|'callback'|'poller'; result: 'success'|'failed'|'short_circuit'|'unavailable'
	)

	reconcileShortCircuits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_short_circuits_total",
			Help: "Reconciliation calls that observed a terminal record and returned early.",
		},
	)
)

func IncReconcile(entry, result string) {
	reconcileTotal.WithLabelValues(norm(entry), norm(result)).Inc()
	if result == "short_circuit" {
		reconcileShortCircuits.Inc()
	}
}
