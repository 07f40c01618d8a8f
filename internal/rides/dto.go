package rides

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/richxcame/ride-lifecycle/pkg/models"
)

// LocationRequest is an address with coordinates as sent by clients.
// Coordinates are pointers so that 0 is accepted but absence is not.
type LocationRequest struct {
	Address   string   `json:"address" binding:"required,max=255"`
	Latitude  *float64 `json:"latitude" binding:"required,latitude"`
	Longitude *float64 `json:"longitude" binding:"required,longitude"`
}

func (l LocationRequest) toModel() models.Location {
	loc := models.Location{Address: l.Address}
	if l.Latitude != nil {
		loc.Latitude = *l.Latitude
	}
	if l.Longitude != nil {
		loc.Longitude = *l.Longitude
	}
	return loc
}

// RequestRideRequest is the ride-request payload
type RequestRideRequest struct {
	PickupLocation      LocationRequest `json:"pickup_location" binding:"required"`
	DestinationLocation LocationRequest `json:"destination_location" binding:"required"`
	RideType            string          `json:"ride_type" binding:"omitempty,ride_type"`
}

func (r RequestRideRequest) toInput() RequestRideInput {
	return RequestRideInput{
		Pickup:      r.PickupLocation.toModel(),
		Destination: r.DestinationLocation.toModel(),
		RideType:    normalizeRideTypeParam(r.RideType),
	}
}

// EstimateFareRequest asks for a quote. Without a ride type every tariff is quoted.
type EstimateFareRequest struct {
	PickupLocation      LocationRequest `json:"pickup_location" binding:"required"`
	DestinationLocation LocationRequest `json:"destination_location" binding:"required"`
	RideType            string          `json:"ride_type" binding:"omitempty,ride_type"`
}

// AssignDriverRequest offers a ride to a driver
type AssignDriverRequest struct {
	DriverID uuid.UUID `json:"driver_id" binding:"required"`
}

// AdvanceStatusRequest moves a ride along its trip
type AdvanceStatusRequest struct {
	TargetStatus     string   `json:"target_status" binding:"required,ride_status"`
	ActualDistanceKm *float64 `json:"actual_distance_km" binding:"omitempty,gte=0"`
	AdjustmentReason string   `json:"adjustment_reason" binding:"max=500"`
}

// CancelRideRequest cancels a ride
type CancelRideRequest struct {
	Reason    string `json:"reason" binding:"max=500"`
	Emergency bool   `json:"emergency"`
}

// RateRideRequest rates a completed ride. The rating is bound as a number
// so fractional or out-of-range values answer with INVALID_RATING rather
// than a generic binding error; the service checks the 1..5 range.
type RateRideRequest struct {
	Rating   float64 `json:"rating"`
	Feedback string  `json:"feedback"`
}

// WholeRating returns the rating as an int, or false when it has a
// fractional part or cannot be represented.
func (r RateRideRequest) WholeRating() (int, bool) {
	if r.Rating != math.Trunc(r.Rating) || math.Abs(r.Rating) > math.MaxInt32 {
		return 0, false
	}
	return int(r.Rating), true
}

// CancellationPreviewQuery selects the emergency flavour of a preview
type CancellationPreviewQuery struct {
	Emergency bool `form:"emergency"`
}

// StatsQuery bounds the transition statistics window
type StatsQuery struct {
	Since time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
}

// StatsResponse reports how many rides entered each status
type StatsResponse struct {
	Since  time.Time                 `json:"since"`
	Counts map[models.RideStatus]int `json:"counts"`
}

// HistoryResponse wraps a ride's audit trail
type HistoryResponse struct {
	RideID      uuid.UUID               `json:"ride_id"`
	Transitions []models.RideTransition `json:"transitions"`
}

func normalizeRideTypeParam(rideType string) models.RideType {
	return models.RideType(strings.ToLower(strings.TrimSpace(rideType)))
}
