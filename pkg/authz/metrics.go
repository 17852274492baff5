package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authz",
		Subsystem: "decisions",
		Name:      "requests_total",
		Help:      "Total number of authorization decisions broken down by check and result.",
	}, []string{"check", "result"})

	decisionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "authz",
		Subsystem: "decisions",
		Name:      "latency_seconds",
		Help:      "Latency distribution for authorization decisions.",
		Buckets: []float64{
			0.0005, 0.001, 0.002, 0.005,
			0.01, 0.02, 0.05, 0.1,
			0.2, 0.5, 1, 2,
		},
	}, []string{"check", "result"})
)

func recordDecision(check string, result string, latency time.Duration) {
	labels := prometheus.Labels{
		"check":  check,
		"result": result,
	}
	decisionRequests.With(labels).Inc()
	decisionLatency.With(labels).Observe(latency.Seconds())
}
