package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(jobsProcessedTotal, jobQueueDepth)
}

var (
	jobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_processed_total",
			Help: "Background jobs processed, labeled by kind and status.",
		},
		[]string{"kind", "status"}, // 'completed', 'failed', 'retried'
	)

	jobQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "job_queue_depth",
			Help: "Jobs currently waiting in the worker queue.",
		},
	)
)

func IncJob(kind, status string) {
	jobsProcessedTotal.WithLabelValues(norm(kind), norm(status)).Inc()
}

func SetJobQueueDepth(n int) {
	jobQueueDepth.Set(float64(n))
}
