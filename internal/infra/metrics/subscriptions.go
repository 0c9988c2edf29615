package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		activeSubscriptions,
		subscriptionEvents,
	)
}

var (
	activeSubscriptions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_active",
			Help: "Currently active subscriptions per plan.",
		},
		[]string{"plan"},
	)

	subscriptionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_events_total",
			Help: "Lifecycle events (activated/extended/expired/suspended/renewed).",
		},
		[]string{"event"},
	)
)

func SetActiveSubscriptions(plan string, n int) {
	activeSubscriptions.WithLabelValues(norm(plan)).Set(float64(n))
}

func IncSubscriptionEvent(event string) {
	subscriptionEvents.WithLabelValues(norm(event)).Inc()
}
