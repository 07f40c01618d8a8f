package rides

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/richxcame/ride-lifecycle/pkg/common"
)

var (
	rideTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ride_transitions_total",
		Help: "Total number of persisted ride status transitions",
	}, []string{"from", "to", "actor_role"})

	rideCommandErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ride_command_errors_total",
		Help: "Total number of rejected or failed ride commands by error code",
	}, []string{"operation", "error_code"})

	rideOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ride_operation_duration_seconds",
		Help:    "Duration of ride service operations",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
	}, []string{"operation"})

	rideEventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ride_event_publish_failures_total",
		Help: "Total number of lifecycle events that could not be published",
	}, []string{"subject"})
)

func recordCommandError(operation string, err error) {
	rideCommandErrorsTotal.WithLabelValues(operation, common.CodeOf(err)).Inc()
}
