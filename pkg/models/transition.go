package models

import (
	"time"

	"github.com/google/uuid"
)

// RideTransition is one row of a ride's audit trail
type RideTransition struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	RideID     uuid.UUID  `json:"ride_id" db:"ride_id"`
	FromStatus RideStatus `json:"from_status" db:"from_status"`
	ToStatus   RideStatus `json:"to_status" db:"to_status"`
	ActorID    uuid.UUID  `json:"actor_id" db:"actor_id"`
	ActorRole  ActorRole  `json:"actor_role" db:"actor_role"`
	Note       string     `json:"note,omitempty" db:"note"`
	OccurredAt time.Time  `json:"occurred_at" db:"occurred_at"`
}
