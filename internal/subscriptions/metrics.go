package subscriptions

import (
	"github.com/bissquit/notification-registry/internal/domain"
	"github.com/bissquit/notification-registry/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess  = "success"
	resultRejected = "rejected"
	resultError    = "error"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "subscriptions",
			Name:      "operations_total",
			Help:      "Subscription operations by outcome",
		},
		[]string{"operation", "result"},
	)

	population = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: "subscriptions",
			Name:      "records",
			Help:      "Stored subscriptions by status",
		},
		[]string{"status"},
	)

	promotionOptIn = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: "subscriptions",
			Name:      "promotion_opt_in",
			Help:      "Active subscriptions that accepted promotions",
		},
	)
)

// recordOperation counts an operation outcome. Domain errors count as
// rejected, anything else as error.
func recordOperation(operation string, err error) {
	result := resultSuccess
	switch {
	case err == nil:
	case isDomainError(err):
		result = resultRejected
	default:
		result = resultError
	}
	operationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordStats updates the population gauges.
func RecordStats(stats *domain.SubscriptionStats) {
	population.WithLabelValues(string(domain.SubscriptionStatusActive)).Set(float64(stats.TotalSubscribers))
	population.WithLabelValues(string(domain.SubscriptionStatusUnsubscribed)).Set(float64(stats.TotalUnsubscribed))
	promotionOptIn.Set(float64(stats.PromotionOptIn))
}
