package rides

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/richxcame/ride-lifecycle/internal/ratings"
	"github.com/richxcame/ride-lifecycle/pkg/eventbus"
	"github.com/richxcame/ride-lifecycle/pkg/logger"
	"github.com/richxcame/ride-lifecycle/pkg/models"
)

const (
	eventSource         = "rides-service"
	eventPublishTimeout = 2 * time.Second
)

// noopPublisher drops events when NATS is disabled
type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, *eventbus.Event) error { return nil }

func rideEventData(ride *models.Ride, from models.RideStatus, actor models.Actor, at time.Time) eventbus.RideEventData {
	data := eventbus.RideEventData{
		RideID:     ride.ID,
		RiderID:    ride.RiderID,
		DriverID:   ride.DriverID,
		FromStatus: string(from),
		Status:     string(ride.Status),
		ActorID:    actor.ID,
		ActorRole:  string(actor.Role),
		RideType:   string(ride.RideType),
		TotalFare:  ride.Fare.TotalFare,
		Currency:   ride.Fare.Currency,
		OccurredAt: at,
	}
	if ride.Cancellation != nil {
		data.Cancel = &eventbus.RideCancelledData{
			CancelledBy: string(ride.Cancellation.By),
			Reason:      ride.Cancellation.Reason,
			Emergency:   ride.Cancellation.Emergency,
			Chargeable:  ride.Cancellation.Chargeable,
			Fee:         ride.Cancellation.Fee,
		}
	}
	return data
}

func ratedEventData(ride *models.Ride, actor models.Actor, rating int, at time.Time) eventbus.RideEventData {
	data := rideEventData(ride, ride.Status, actor, at)
	data.Rating = &eventbus.RideRatedData{Side: ratings.Side(ride, actor), Rating: rating}
	return data
}

// publish delivers an event after the mutation is committed. Delivery is
// best effort: the command already succeeded, so failures are only logged.
func (s *Service) publish(ctx context.Context, subject string, data eventbus.RideEventData) {
	event, err := eventbus.NewEvent(subject, eventSource, data)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build ride event", zap.String("subject", subject), zap.Error(err))
		rideEventPublishFailures.WithLabelValues(subject).Inc()
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()

	if err := s.events.Publish(pubCtx, subject, event); err != nil {
		logger.WarnContext(ctx, "failed to publish ride event",
			zap.String("subject", subject),
			zap.String("ride_id", data.RideID.String()),
			zap.Error(err),
		)
		rideEventPublishFailures.WithLabelValues(subject).Inc()
	}
}
