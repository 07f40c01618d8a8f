// Package lifecycle enforces the legal ride status transitions. Every
// transition works on a clone and never mutates the ride passed in.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/richxcame/ride-lifecycle/pkg/common"
	"github.com/richxcame/ride-lifecycle/pkg/models"
)

var transitions = map[models.RideStatus][]models.RideStatus{
	models.RideStatusRequested: {
		models.RideStatusAccepted,
		models.RideStatusDriverAssigned,
		models.RideStatusCancelled,
	},
	models.RideStatusDriverAssigned: {
		models.RideStatusAccepted,
		models.RideStatusCancelled,
	},
	models.RideStatusAccepted:  {models.RideStatusPickedUp, models.RideStatusCancelled},
	models.RideStatusPickedUp:  {models.RideStatusInTransit, models.RideStatusCancelled},
	models.RideStatusInTransit: {models.RideStatusCompleted, models.RideStatusCancelled},
}

// CanTransition reports whether to is reachable from from in one step.
func CanTransition(from, to models.RideStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Clock returns the current time
type Clock func() time.Time

// Machine applies transitions to rides
type Machine struct {
	now Clock
}

// NewMachine creates a machine. A nil clock uses time.Now in UTC.
func NewMachine(clock Clock) *Machine {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Machine{now: clock}
}

// Accept binds driverID and moves the ride to accepted.
func (m *Machine) Accept(ride *models.Ride, driverID uuid.UUID) (*models.Ride, error) {
	if ride.Status.Terminal() {
		return nil, terminalError(ride)
	}
	if ride.DriverID != nil && *ride.DriverID != driverID {
		return nil, common.NewAlreadyAssignedError("ride is already assigned to another driver")
	}
	if !CanTransition(ride.Status, models.RideStatusAccepted) {
		return nil, invalidTransition(ride.Status, models.RideStatusAccepted)
	}

	next := ride.Clone()
	id := driverID
	next.DriverID = &id
	next.Status = models.RideStatusAccepted
	next.Timestamps.Accepted = m.stamp(ride)
	return next, nil
}

// Assign offers a requested ride to driverID on behalf of the dispatcher.
func (m *Machine) Assign(ride *models.Ride, driverID uuid.UUID) (*models.Ride, error) {
	if ride.Status.Terminal() {
		return nil, terminalError(ride)
	}
	if driverID == uuid.Nil {
		return nil, common.NewInvalidInputError("driver_id is required")
	}
	if ride.DriverID != nil {
		return nil, common.NewAlreadyAssignedError("ride already has a driver")
	}
	if !CanTransition(ride.Status, models.RideStatusDriverAssigned) {
		return nil, invalidTransition(ride.Status, models.RideStatusDriverAssigned)
	}

	next := ride.Clone()
	id := driverID
	next.DriverID = &id
	next.Status = models.RideStatusDriverAssigned
	next.Timestamps.DriverAssigned = m.stamp(ride)
	return next, nil
}

// Advance moves an accepted ride along picked_up, in_transit and completed.
// Only the assigned driver may advance; anyone else is refused before the
// ride's state is looked at.
func (m *Machine) Advance(ride *models.Ride, actor models.Actor, target models.RideStatus) (*models.Ride, error) {
	if actor.Role != models.ActorDriver || !ride.IsDriver(actor.ID) {
		return nil, common.NewForbiddenError("only the assigned driver can advance this ride")
	}
	if ride.Status.Terminal() {
		return nil, terminalError(ride)
	}
	if !isAdvanceTarget(target) || !CanTransition(ride.Status, target) {
		return nil, invalidTransition(ride.Status, target)
	}

	next := ride.Clone()
	next.Status = target
	stamp := m.stamp(ride)
	switch target {
	case models.RideStatusPickedUp:
		next.Timestamps.PickedUp = stamp
	case models.RideStatusInTransit:
		next.Timestamps.InTransit = stamp
	case models.RideStatusCompleted:
		next.Timestamps.Completed = stamp
	}
	return next, nil
}

// Cancel moves the ride to cancelled and stores record. Permission and fee
// decisions belong to the cancellation policy; the machine only guards the
// structural rules.
func (m *Machine) Cancel(ride *models.Ride, actor models.Actor, record models.Cancellation) (*models.Ride, error) {
	if ride.Status.Terminal() {
		return nil, terminalError(ride)
	}
	if !actor.IsSystem() && !ride.IsRider(actor.ID) && !ride.IsDriver(actor.ID) {
		return nil, common.NewForbiddenError("only the rider or the assigned driver can cancel this ride")
	}
	if ride.Status == models.RideStatusInTransit && !actor.IsSystem() && !record.Emergency {
		return nil, common.NewCancellationNotAllowedError("a ride in transit can only be cancelled as an emergency")
	}

	next := ride.Clone()
	next.Status = models.RideStatusCancelled
	next.Timestamps.Cancelled = m.stamp(ride)
	next.Cancellation = &record
	return next, nil
}

// stamp never goes backwards relative to what the ride already recorded.
func (m *Machine) stamp(ride *models.Ride) *time.Time {
	now := m.now()
	if latest := ride.Timestamps.Latest(); latest.After(now) {
		now = latest
	}
	return &now
}

func isAdvanceTarget(target models.RideStatus) bool {
	switch target {
	case models.RideStatusPickedUp, models.RideStatusInTransit, models.RideStatusCompleted:
		return true
	}
	return false
}

func terminalError(ride *models.Ride) error {
	return common.NewRideTerminalError(fmt.Sprintf("ride is already %s", ride.Status))
}

func invalidTransition(from, to models.RideStatus) error {
	return common.NewInvalidTransitionError(fmt.Sprintf("cannot transition from %s to %s", from, to))
}
