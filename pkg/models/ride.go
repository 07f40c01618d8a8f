package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RideStatus represents the status of a ride
type RideStatus string

const (
	RideStatusRequested      RideStatus = "requested"
	RideStatusAccepted       RideStatus = "accepted"
	RideStatusDriverAssigned RideStatus = "driver_assigned"
	RideStatusPickedUp       RideStatus = "picked_up"
	RideStatusInTransit      RideStatus = "in_transit"
	RideStatusCompleted      RideStatus = "completed"
	RideStatusCancelled      RideStatus = "cancelled"
)

// ErrInvalidRideStatus is returned by ParseRideStatus for unknown values.
var ErrInvalidRideStatus = errors.New("invalid ride status")

// AllRideStatuses lists every status in lifecycle order.
var AllRideStatuses = []RideStatus{
	RideStatusRequested,
	RideStatusDriverAssigned,
	RideStatusAccepted,
	RideStatusPickedUp,
	RideStatusInTransit,
	RideStatusCompleted,
	RideStatusCancelled,
}

// ParseRideStatus normalizes (lowercases+trims) and validates a status string.
func ParseRideStatus(in string) (RideStatus, error) {
	status := RideStatus(strings.ToLower(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidRideStatus
}

// Valid reports whether the status is known.
func (s RideStatus) Valid() bool {
	for _, known := range AllRideStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s RideStatus) Terminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// RideType selects the tariff applied to a ride
type RideType string

const (
	RideTypeEconomy RideType = "economy"
	RideTypePremium RideType = "premium"
	RideTypeLuxury  RideType = "luxury"

	// RideTypeRegular is accepted from older clients and priced as economy.
	RideTypeRegular RideType = "regular"
)

// Location is an address with its coordinates
type Location struct {
	Address   string  `json:"address"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Distance holds the routed estimate and, once completed, the measured distance
type Distance struct {
	EstimatedKm          float64  `json:"estimated_km"`
	ActualKm             *float64 `json:"actual_km"`
	EstimatedDurationMin int      `json:"estimated_duration_min"`
}

// Fare is the price breakdown of a ride
type Fare struct {
	BaseFare     float64         `json:"base_fare"`
	DistanceFare float64         `json:"distance_fare"`
	TimeFare     float64         `json:"time_fare"`
	TotalFare    float64         `json:"total_fare"`
	Currency     string          `json:"currency"`
	Adjustment   *FareAdjustment `json:"adjustment,omitempty"`
}

// FareAdjustment documents why a settled fare differs from the estimate
type FareAdjustment struct {
	Reason         string  `json:"reason"`
	EstimatedTotal float64 `json:"estimated_total"`
	Delta          float64 `json:"delta"`
}

// RideTimestamps records when each lifecycle step happened
type RideTimestamps struct {
	Requested      time.Time  `json:"requested"`
	DriverAssigned *time.Time `json:"driver_assigned,omitempty"`
	Accepted       *time.Time `json:"accepted,omitempty"`
	PickedUp       *time.Time `json:"picked_up,omitempty"`
	InTransit      *time.Time `json:"in_transit,omitempty"`
	Completed      *time.Time `json:"completed,omitempty"`
	Cancelled      *time.Time `json:"cancelled,omitempty"`
}

// Latest returns the most recent stamped instant.
func (t RideTimestamps) Latest() time.Time {
	latest := t.Requested
	for _, ts := range []*time.Time{t.DriverAssigned, t.Accepted, t.PickedUp, t.InTransit, t.Completed, t.Cancelled} {
		if ts != nil && ts.After(latest) {
			latest = *ts
		}
	}
	return latest
}

// CancelledBy represents who cancelled the ride
type CancelledBy string

const (
	CancelledByRider  CancelledBy = "rider"
	CancelledByDriver CancelledBy = "driver"
	CancelledBySystem CancelledBy = "system"
)

// Cancellation is recorded when a ride enters the cancelled state
type Cancellation struct {
	By         CancelledBy `json:"by"`
	Reason     string      `json:"reason"`
	Emergency  bool        `json:"emergency"`
	Chargeable bool        `json:"chargeable"`
	Fee        float64     `json:"fee"`
}

// Rating holds the post-completion feedback from both sides
type Rating struct {
	RiderRating    *int    `json:"rider_rating,omitempty"`
	RiderFeedback  *string `json:"rider_feedback,omitempty"`
	DriverRating   *int    `json:"driver_rating,omitempty"`
	DriverFeedback *string `json:"driver_feedback,omitempty"`
}

// Ride represents a ride in the system
type Ride struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	RiderID      uuid.UUID      `json:"rider_id" db:"rider_id"`
	DriverID     *uuid.UUID     `json:"driver_id,omitempty" db:"driver_id"`
	Status       RideStatus     `json:"status" db:"status"`
	RideType     RideType       `json:"ride_type" db:"ride_type"`
	Pickup       Location       `json:"pickup_location"`
	Destination  Location       `json:"destination_location"`
	Distance     Distance       `json:"distance"`
	Fare         Fare           `json:"fare"`
	Timestamps   RideTimestamps `json:"timestamps"`
	Cancellation *Cancellation  `json:"cancellation"`
	Rating       Rating         `json:"rating"`
	Version      int64          `json:"version" db:"version"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// IsRider reports whether id owns the ride.
func (r *Ride) IsRider(id uuid.UUID) bool {
	return r.RiderID == id
}

// IsDriver reports whether id is the bound driver.
func (r *Ride) IsDriver(id uuid.UUID) bool {
	return r.DriverID != nil && *r.DriverID == id
}

// Clone returns a deep copy so a transition can be applied without touching
// the original until it is persisted.
func (r *Ride) Clone() *Ride {
	if r == nil {
		return nil
	}

	c := *r
	c.DriverID = clonePtr(r.DriverID)
	c.Distance.ActualKm = clonePtr(r.Distance.ActualKm)
	if r.Fare.Adjustment != nil {
		adj := *r.Fare.Adjustment
		c.Fare.Adjustment = &adj
	}
	c.Timestamps = RideTimestamps{
		Requested:      r.Timestamps.Requested,
		DriverAssigned: clonePtr(r.Timestamps.DriverAssigned),
		Accepted:       clonePtr(r.Timestamps.Accepted),
		PickedUp:       clonePtr(r.Timestamps.PickedUp),
		InTransit:      clonePtr(r.Timestamps.InTransit),
		Completed:      clonePtr(r.Timestamps.Completed),
		Cancelled:      clonePtr(r.Timestamps.Cancelled),
	}
	if r.Cancellation != nil {
		cancellation := *r.Cancellation
		c.Cancellation = &cancellation
	}
	c.Rating = Rating{
		RiderRating:    clonePtr(r.Rating.RiderRating),
		RiderFeedback:  clonePtr(r.Rating.RiderFeedback),
		DriverRating:   clonePtr(r.Rating.DriverRating),
		DriverFeedback: clonePtr(r.Rating.DriverFeedback),
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
