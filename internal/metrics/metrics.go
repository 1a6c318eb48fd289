package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "hookq"

var (
	EventsTriggeredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_triggered_total",
			Help:      "Total number of domain events offered to the dispatcher.",
		},
		[]string{"entity", "event"},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Total number of finished delivery series, labeled by outcome.",
		},
		[]string{"entity", "event", "outcome"},
	)

	DeliveryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_attempts_total",
			Help:      "Total number of individual HTTP delivery attempts.",
		},
		[]string{"entity", "event"},
	)

	DeliveryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_duration_seconds",
			Help:      "Wall time of one delivery series including backoff (seconds).",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"outcome"},
	)

	SubscriptionsFilteredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_filtered_total",
			Help:      "Deliveries skipped because the subscription's conditions rejected the event.",
		},
		[]string{"entity", "event"},
	)

	SubscriptionsAutoDisabledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_autodisabled_total",
			Help:      "Subscriptions switched off after reaching the consecutive-failure threshold.",
		},
		[]string{"entity", "event"},
	)

	TestDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "test_deliveries_total",
			Help:      "Manual test deliveries, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	RateLimitHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Requests or deliveries delayed or rejected by the token bucket.",
		},
		[]string{"scope", "operation"},
	)
)

func init() {
	prometheus.MustRegister(
		EventsTriggeredTotal,
		DeliveriesTotal,
		DeliveryAttemptsTotal,
		DeliveryDurationSeconds,
		SubscriptionsFilteredTotal,
		SubscriptionsAutoDisabledTotal,
		TestDeliveriesTotal,
		RateLimitHitsTotal,
	)
}
