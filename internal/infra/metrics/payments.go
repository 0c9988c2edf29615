package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		gatewayRequestDuration,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by gateway and status (initiated/succeeded/failed).",
		},
		[]string{"gateway", "status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total minor-unit value of successful payments, labeled by currency.",
		},
		[]string{"currency"},
	)

	gatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Latency of outbound gateway API calls.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"gateway", "op"},
	)
)

func IncPayment(gateway, status string) {
	paymentsTotal.WithLabelValues(norm(gateway), norm(status)).Inc()
}

func AddPaymentRevenue(currency string, amountMinor int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amountMinor))
}

func ObserveGatewayRequest(gateway, op string, seconds float64) {
	gatewayRequestDuration.WithLabelValues(norm(gateway), norm(op)).Observe(seconds)
}
