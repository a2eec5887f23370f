// Package metrics holds the service's Prometheus collectors. They are created
// unregistered so packages can increment them freely in tests; main registers
// them once with Register.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "computegate"

var (
	EventsAppended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_appended_total",
			Help:      "Total number of events appended to the event log.",
		},
		[]string{"aggregate_type", "type"},
	)

	ProjectionWriteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projection_write_failures_total",
			Help:      "Projection writes that failed after a successful append.",
		},
		[]string{"aggregate_type"},
	)

	APIKeyValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "apikey_validations_total",
			Help:      "API key validation attempts by result.",
		},
		[]string{"result"},
	)

	UsageEventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_events_dropped_total",
			Help:      "Usage updates dropped because the tracking queue was full.",
		},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route", "status"},
	)
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		EventsAppended,
		ProjectionWriteFailures,
		APIKeyValidations,
		UsageEventsDropped,
		RequestDuration,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
