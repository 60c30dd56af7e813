package pool

import "github.com/prometheus/client_golang/prometheus"

var (
	workersRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "llmpoold",
			Subsystem: "pool",
			Name:      "workers_running",
			Help:      "Number of workers with a live execution unit",
		},
	)

	workerStartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmpoold",
			Subsystem: "pool",
			Name:      "worker_starts_total",
			Help:      "Total worker starts by runner kind",
		},
		[]string{"runner"},
	)

	workerStopsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmpoold",
			Subsystem: "pool",
			Name:      "worker_stops_total",
			Help:      "Total worker stops by outcome (clean or killed)",
		},
		[]string{"outcome"},
	)

	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmpoold",
			Subsystem: "pool",
			Name:      "generations_total",
			Help:      "Total generation requests by outcome (ok, timeout, canceled)",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(workersRunning, workerStartsTotal, workerStopsTotal, generationsTotal)
}
