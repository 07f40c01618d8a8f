package eventbus

import (
	"time"

	"github.com/google/uuid"
)

// Subjects for ride lifecycle events.
const (
	SubjectRideRequested      = "rides.requested"
	SubjectRideDriverAssigned = "rides.driver_assigned"
	SubjectRideAccepted       = "rides.accepted"
	SubjectRidePickedUp       = "rides.picked_up"
	SubjectRideInTransit      = "rides.in_transit"
	SubjectRideCompleted      = "rides.completed"
	SubjectRideCancelled      = "rides.cancelled"
	SubjectRideRated          = "rides.rated"

	SubjectAllRides = "rides.>"
)

// SubjectForStatus maps a ride status onto its event subject.
func SubjectForStatus(status string) string {
	return "rides." + status
}

// RideEventData is the payload of every ride lifecycle event.
type RideEventData struct {
	RideID     uuid.UUID          `json:"ride_id"`
	RiderID    uuid.UUID          `json:"rider_id"`
	DriverID   *uuid.UUID         `json:"driver_id,omitempty"`
	FromStatus string             `json:"from_status,omitempty"`
	Status     string             `json:"status"`
	ActorID    uuid.UUID          `json:"actor_id"`
	ActorRole  string             `json:"actor_role"`
	RideType   string             `json:"ride_type"`
	TotalFare  float64            `json:"total_fare"`
	Currency   string             `json:"currency"`
	Cancel     *RideCancelledData `json:"cancellation,omitempty"`
	Rating     *RideRatedData     `json:"rating,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// RideCancelledData is attached when a ride is cancelled.
type RideCancelledData struct {
	CancelledBy string  `json:"cancelled_by"`
	Reason      string  `json:"reason"`
	Emergency   bool    `json:"emergency"`
	Chargeable  bool    `json:"chargeable"`
	Fee         float64 `json:"fee"`
}

// RideRatedData is attached when one side rates a completed ride.
type RideRatedData struct {
	Side   string `json:"side"`
	Rating int    `json:"rating"`
}
