// Package metrics holds the Prometheus collectors of the check-in service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkin",
		Name:      "operations_total",
		Help:      "Check-in, check-out and guest check-in attempts by result.",
	}, []string{"operation", "result"})

	lockWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "checkin",
		Name:      "lock_wait_seconds",
		Help:      "Time spent acquiring the per-seat lock.",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30},
	})

	autoCheckouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkin",
		Name:      "auto_checkouts_total",
		Help:      "Deferred guest checkouts by result.",
	}, []string{"result"})
)

// ObserveOperation counts one coordinator run.
func ObserveOperation(operation, result string) {
	operations.WithLabelValues(operation, result).Inc()
}

// ObserveLockWait records how long a lock acquisition took.
func ObserveLockWait(d time.Duration) {
	lockWait.Observe(d.Seconds())
}

// ObserveAutoCheckout counts one fired deferred checkout.
func ObserveAutoCheckout(result string) {
	autoCheckouts.WithLabelValues(result).Inc()
}
