// internal/metrics/metrics.go
package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_jobs_processed_total",
		Help: "The total number of delivery jobs processed",
	}, []string{"status", "source"}) // status: sent, retried, failed, cancelled

	RateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delivery_rate_limit_hits_total",
		Help: "Worker cycles halted by the send rate limiter",
	})

	SendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "delivery_send_duration_seconds",
		Help:    "Duration of outbound transport calls.",
		Buckets: prometheus.LinearBuckets(0.1, 0.2, 10),
	})

	LeadStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lead_status_changes_total",
		Help: "Lead status transitions applied by the reconciler",
	}, []string{"to_status"})
)

// StartMetricsServer runs an HTTP server to expose Prometheus metrics.
func StartMetricsServer(addr string) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Println("metrics server failed:", err)
		}
	}()
}
