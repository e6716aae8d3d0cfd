package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	NotificationsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_center_notifications_emitted_total",
			Help: "Total number of notifications persisted and broadcast",
		},
		[]string{"type"},
	)

	DedupSuppressed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notify_center_dedup_suppressed_total",
			Help: "Events suppressed by the dedup window",
		},
	)

	DroppedDeliveries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notify_center_dropped_deliveries_total",
			Help: "Per-session deliveries dropped because a mailbox was full",
		},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_center_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "notify_center_active_sessions",
			Help: "Currently connected streaming sessions",
		},
	)
)

var registered bool

// Init registers all collectors with the default registry. Safe to call once
// per process; tests that build isolated services do not need it.
func Init() {
	if registered {
		return
	}
	registered = true
	prometheus.MustRegister(NotificationsEmitted, DedupSuppressed, DroppedDeliveries, RateLimited, ActiveSessions)
}
