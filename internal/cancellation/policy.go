package cancellation

import (
	"github.com/richxcame/ride-lifecycle/internal/fare"
	"github.com/richxcame/ride-lifecycle/pkg/common"
	"github.com/richxcame/ride-lifecycle/pkg/models"
)

// DefaultFeeRate charges the full base fare on a chargeable cancellation.
const DefaultFeeRate = 1.0

// Reason explains a decision
type Reason string

const (
	ReasonBeforePickup    Reason = "before_pickup"
	ReasonAfterPickup     Reason = "after_pickup"
	ReasonEmergency       Reason = "emergency"
	ReasonDriverInitiated Reason = "driver_initiated"
	ReasonSystemInitiated Reason = "system_initiated"
	ReasonInTransit       Reason = "in_transit_requires_emergency"
	ReasonTerminal        Reason = "ride_terminal"
	ReasonNotParticipant  Reason = "not_a_participant"
)

// Decision is the outcome of evaluating a cancellation request
type Decision struct {
	Allowed    bool    `json:"allowed"`
	Chargeable bool    `json:"chargeable"`
	Fee        float64 `json:"fee"`
	Currency   string  `json:"currency"`
	Reason     Reason  `json:"reason"`
	Code       string  `json:"code,omitempty"`
}

// Record builds the cancellation stored on the ride for an allowed decision.
func (d Decision) Record(actor models.Actor, ride *models.Ride, reason string, emergency bool) models.Cancellation {
	return models.Cancellation{
		By:         cancelledBy(actor, ride),
		Reason:     reason,
		Emergency:  emergency,
		Chargeable: d.Chargeable,
		Fee:        d.Fee,
	}
}

// Err converts a rejected decision into the matching typed error.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Code {
	case common.CodeRideTerminal:
		return common.NewRideTerminalError("ride has already ended")
	case common.CodeForbidden:
		return common.NewForbiddenError("only the rider or the assigned driver can cancel this ride")
	default:
		return common.NewCancellationNotAllowedError("a ride in transit can only be cancelled as an emergency")
	}
}

// Policy decides whether a cancellation is allowed and what it costs. It
// never mutates the ride.
type Policy struct {
	feeRate float64
}

// NewPolicy creates a policy charging feeRate times the base fare.
func NewPolicy(feeRate float64) *Policy {
	if feeRate < 0 {
		feeRate = DefaultFeeRate
	}
	return &Policy{feeRate: feeRate}
}

// FeeRate returns the configured fee rate
func (p *Policy) FeeRate() float64 {
	return p.feeRate
}

// Evaluate decides a cancellation request by actor against ride.
func (p *Policy) Evaluate(ride *models.Ride, actor models.Actor, emergency bool) Decision {
	d := Decision{Currency: ride.Fare.Currency}

	if ride.Status.Terminal() {
		d.Reason, d.Code = ReasonTerminal, common.CodeRideTerminal
		return d
	}

	switch {
	case actor.IsSystem():
		d.Allowed, d.Reason = true, ReasonSystemInitiated
		return d

	case actor.Role == models.ActorDriver && ride.IsDriver(actor.ID):
		return p.evaluateDriver(ride, emergency, d)

	case actor.Role == models.ActorRider && ride.IsRider(actor.ID):
		return p.evaluateRider(ride, emergency, d)

	default:
		d.Reason, d.Code = ReasonNotParticipant, common.CodeForbidden
		return d
	}
}

func (p *Policy) evaluateRider(ride *models.Ride, emergency bool, d Decision) Decision {
	switch ride.Status {
	case models.RideStatusRequested, models.RideStatusDriverAssigned, models.RideStatusAccepted:
		d.Allowed, d.Reason = true, ReasonBeforePickup
	case models.RideStatusPickedUp:
		return p.afterPickup(ride, emergency, d)
	case models.RideStatusInTransit:
		return inTransit(emergency, d)
	}
	return d
}

// evaluateDriver charges a driver who abandons a picked-up rider. The fee
// is recorded against the driver through cancellation.by.
func (p *Policy) evaluateDriver(ride *models.Ride, emergency bool, d Decision) Decision {
	switch ride.Status {
	case models.RideStatusInTransit:
		return inTransit(emergency, d)
	case models.RideStatusPickedUp:
		return p.afterPickup(ride, emergency, d)
	}
	d.Allowed = true
	d.Reason = ReasonDriverInitiated
	if emergency {
		d.Reason = ReasonEmergency
	}
	return d
}

func (p *Policy) afterPickup(ride *models.Ride, emergency bool, d Decision) Decision {
	d.Allowed = true
	if emergency {
		d.Reason = ReasonEmergency
		return d
	}
	d.Chargeable, d.Reason = true, ReasonAfterPickup
	d.Fee = fare.Round(p.feeRate * ride.Fare.BaseFare)
	return d
}

func inTransit(emergency bool, d Decision) Decision {
	if emergency {
		d.Allowed, d.Reason = true, ReasonEmergency
		return d
	}
	d.Reason, d.Code = ReasonInTransit, common.CodeCancellationNotAllowed
	return d
}

func cancelledBy(actor models.Actor, ride *models.Ride) models.CancelledBy {
	switch {
	case actor.IsSystem():
		return models.CancelledBySystem
	case ride.IsDriver(actor.ID):
		return models.CancelledByDriver
	default:
		return models.CancelledByRider
	}
}
