package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// NotificationsTotal counts outbound notifications by channel and outcome.
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadgrid",
			Name:      "notifications_total",
			Help:      "Total notifications dispatched, by channel and status",
		},
		[]string{"channel", "status"},
	)

	// NotificationRetriesTotal counts retry-queue deliveries by outcome.
	NotificationRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadgrid",
			Name:      "notification_retries_total",
			Help:      "Total notification retry attempts, by outcome",
		},
		[]string{"outcome"},
	)

	// ProviderRequestDuration measures messaging provider call latency.
	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leadgrid",
			Name:      "provider_request_duration_seconds",
			Help:      "Messaging provider request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"channel"},
	)
)

// RegisterNotificationMetrics registers the notification metric set.
// Called explicitly from the composition root (no init()).
func RegisterNotificationMetrics() {
	prometheus.MustRegister(NotificationsTotal)
	prometheus.MustRegister(NotificationRetriesTotal)
	prometheus.MustRegister(ProviderRequestDuration)
}
