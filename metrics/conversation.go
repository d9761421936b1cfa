package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	repliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsales_replies_total",
			Help: "Replies produced by the sales engine, by source and intent.",
		},
		[]string{"source", "intent"},
	)
	fallbackDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatsales_fallback_duration_seconds",
			Help:    "Latency of generative fallback calls.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20},
		},
	)
	cartActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsales_cart_actions_total",
			Help: "Cart mutations performed by the engine.",
		},
		[]string{"action"},
	)
	recoveryNotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsales_recovery_notifications_total",
			Help: "Abandoned cart notifications, by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(repliesTotal, fallbackDuration, cartActionsTotal, recoveryNotificationsTotal)
}

func RecordReply(source, intent string) {
	if intent == "" {
		intent = "none"
	}
	repliesTotal.WithLabelValues(source, intent).Inc()
}

func RecordFallback(d time.Duration) {
	fallbackDuration.Observe(d.Seconds())
}

func RecordCartAction(action string) {
	cartActionsTotal.WithLabelValues(action).Inc()
}

func RecordRecovery(result string) {
	recoveryNotificationsTotal.WithLabelValues(result).Inc()
}
