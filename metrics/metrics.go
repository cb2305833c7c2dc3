package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveCalls is the call count seen in the most recent snapshot.
	ActiveCalls = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "calltracker_active_calls",
		Help: "Active calls in the latest snapshot",
	})
	// SnapshotsObserved counts snapshot rewrites picked up in watch mode.
	SnapshotsObserved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calltracker_snapshots_observed_total",
		Help: "Snapshot updates observed",
	})
	AlertsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calltracker_alerts_delivered_total",
		Help: "Alerts delivered to the webhook by rule",
	}, []string{"rule"})
	AlertDeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calltracker_alert_delivery_failures_total",
		Help: "Webhook deliveries that failed",
	})
)

// Serve exposes /metrics on addr in the background.
func Serve(addr string) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("metrics server error: %v", err)
		}
	}()
}
