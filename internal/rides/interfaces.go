package rides

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/richxcame/ride-lifecycle/pkg/eventbus"
	"github.com/richxcame/ride-lifecycle/pkg/models"
)

// Repository persists rides. Update is a compare-and-swap on ride.Version:
// it fails with ErrVersionConflict when the stored version moved on, and on
// success bumps ride.Version and ride.UpdatedAt in place.
type Repository interface {
	Create(ctx context.Context, ride *models.Ride, transition models.RideTransition) error
	Get(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	Update(ctx context.Context, ride *models.Ride, transition *models.RideTransition) error
}

// Locker serializes commands on a single ride
type Locker interface {
	Lock(ctx context.Context, rideID uuid.UUID) (unlock func(), err error)
}

// Route is a distance and duration estimate between two locations
type Route struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin int     `json:"duration_min"`
}

// RouteEstimator is the routing collaborator
type RouteEstimator interface {
	Estimate(ctx context.Context, from, to models.Location) (Route, error)
}

// EventPublisher delivers lifecycle events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, event *eventbus.Event) error
}

// RideCache is a read-through cache for the ride-state query. Put must
// keep whichever snapshot has the higher Version.
type RideCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Ride, bool)
	Put(ctx context.Context, ride *models.Ride)
}

// HistoryReader reads the transition audit trail
type HistoryReader interface {
	ListByRide(ctx context.Context, rideID uuid.UUID) ([]models.RideTransition, error)
	CountByStatus(ctx context.Context, since time.Time) (map[models.RideStatus]int, error)
}
