package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Vector index and webhook Prometheus metrics.
var (
	IndexOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartsearch",
			Name:      "index_operations_total",
			Help:      "Total vector index operations",
		},
		[]string{"driver", "op", "status"},
	)

	IndexOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smartsearch",
			Name:      "index_operation_duration_seconds",
			Help:      "Vector index operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"driver", "op"},
	)

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartsearch",
			Name:      "webhook_events_total",
			Help:      "Webhook deliveries by content type and outcome",
		},
		[]string{"content_type", "action"},
	)
)

// ObserveIndexOp records one vector index call.
func ObserveIndexOp(driver, op string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	IndexOperationsTotal.WithLabelValues(driver, op, status).Inc()
	IndexOperationDuration.WithLabelValues(driver, op).Observe(d.Seconds())
}
