package cancellation

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/richxcame/ride-lifecycle/pkg/common"
	"github.com/richxcame/ride-lifecycle/pkg/models"
)

var (
	riderID  = uuid.New()
	driverID = uuid.New()
)

func rideIn(status models.RideStatus) *models.Ride {
	id := driverID
	return &models.Ride{
		ID:       uuid.New(),
		RiderID:  riderID,
		DriverID: &id,
		Status:   status,
		Fare:     models.Fare{BaseFare: 150, DistanceFare: 250, TotalFare: 400, Currency: "BDT"},
	}
}

func TestPolicy_Evaluate(t *testing.T) {
	rider := models.Actor{ID: riderID, Role: models.ActorRider}
	driver := models.Actor{ID: driverID, Role: models.ActorDriver}
	stranger := models.Actor{ID: uuid.New(), Role: models.ActorRider}
	otherDriver := models.Actor{ID: uuid.New(), Role: models.ActorDriver}
	system := models.SystemActor()

	tests := []struct {
		name           string
		status         models.RideStatus
		actor          models.Actor
		emergency      bool
		wantAllowed    bool
		wantChargeable bool
		wantFee        float64
		wantReason     Reason
		wantCode       string
	}{
		{"rider before acceptance is free", models.RideStatusRequested, rider, false, true, false, 0, ReasonBeforePickup, ""},
		{"rider with driver assigned is free", models.RideStatusDriverAssigned, rider, false, true, false, 0, ReasonBeforePickup, ""},
		{"rider after acceptance is free", models.RideStatusAccepted, rider, false, true, false, 0, ReasonBeforePickup, ""},
		{"rider after pickup is charged", models.RideStatusPickedUp, rider, false, true, true, 150, ReasonAfterPickup, ""},
		{"rider emergency after pickup is free", models.RideStatusPickedUp, rider, true, true, false, 0, ReasonEmergency, ""},
		{"rider in transit is rejected", models.RideStatusInTransit, rider, false, false, false, 0, ReasonInTransit, common.CodeCancellationNotAllowed},
		{"rider emergency in transit is free", models.RideStatusInTransit, rider, true, true, false, 0, ReasonEmergency, ""},
		{"driver after acceptance is free for rider", models.RideStatusAccepted, driver, false, true, false, 0, ReasonDriverInitiated, ""},
		{"driver after pickup is charged", models.RideStatusPickedUp, driver, false, true, true, 150, ReasonAfterPickup, ""},
		{"driver emergency after pickup is free", models.RideStatusPickedUp, driver, true, true, false, 0, ReasonEmergency, ""},
		{"driver in transit is rejected", models.RideStatusInTransit, driver, false, false, false, 0, ReasonInTransit, common.CodeCancellationNotAllowed},
		{"driver emergency in transit", models.RideStatusInTransit, driver, true, true, false, 0, ReasonEmergency, ""},
		{"system in transit", models.RideStatusInTransit, system, false, true, false, 0, ReasonSystemInitiated, ""},
		{"system before pickup", models.RideStatusRequested, system, false, true, false, 0, ReasonSystemInitiated, ""},
		{"stranger is forbidden", models.RideStatusAccepted, stranger, false, false, false, 0, ReasonNotParticipant, common.CodeForbidden},
		{"unassigned driver is forbidden", models.RideStatusAccepted, otherDriver, false, false, false, 0, ReasonNotParticipant, common.CodeForbidden},
		{"completed ride is terminal", models.RideStatusCompleted, rider, true, false, false, 0, ReasonTerminal, common.CodeRideTerminal},
		{"cancelled ride is terminal for system", models.RideStatusCancelled, system, false, false, false, 0, ReasonTerminal, common.CodeRideTerminal},
	}

	policy := NewPolicy(DefaultFeeRate)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ride := rideIn(tt.status)
			before := ride.Clone()

			d := policy.Evaluate(ride, tt.actor, tt.emergency)

			assert.Equal(t, tt.wantAllowed, d.Allowed)
			assert.Equal(t, tt.wantChargeable, d.Chargeable)
			assert.Equal(t, tt.wantFee, d.Fee)
			assert.Equal(t, tt.wantReason, d.Reason)
			assert.Equal(t, tt.wantCode, d.Code)
			assert.Equal(t, before, ride)
		})
	}
}

func TestPolicy_FeeRate(t *testing.T) {
	ride := rideIn(models.RideStatusPickedUp)
	rider := models.Actor{ID: riderID, Role: models.ActorRider}

	d := NewPolicy(0.5).Evaluate(ride, rider, false)
	assert.Equal(t, 75.0, d.Fee)
	assert.Equal(t, "BDT", d.Currency)

	assert.Equal(t, DefaultFeeRate, NewPolicy(-1).FeeRate())
}

func TestDecision_Err(t *testing.T) {
	assert.NoError(t, Decision{Allowed: true}.Err())
	assert.True(t, errors.Is(Decision{Code: common.CodeRideTerminal}.Err(), common.ErrRideTerminal))
	assert.True(t, errors.Is(Decision{Code: common.CodeForbidden}.Err(), common.ErrForbidden))
	assert.True(t, errors.Is(Decision{Code: common.CodeCancellationNotAllowed}.Err(), common.ErrCancellationNotAllowed))
}

func TestDecision_Record(t *testing.T) {
	ride := rideIn(models.RideStatusPickedUp)
	policy := NewPolicy(DefaultFeeRate)

	riderActor := models.Actor{ID: riderID, Role: models.ActorRider}
	d := policy.Evaluate(ride, riderActor, false)
	rec := d.Record(riderActor, ride, "changed my mind", false)
	assert.Equal(t, models.CancelledByRider, rec.By)
	assert.True(t, rec.Chargeable)
	assert.Equal(t, 150.0, rec.Fee)

	driverActor := models.Actor{ID: driverID, Role: models.ActorDriver}
	rec = policy.Evaluate(ride, driverActor, false).Record(driverActor, ride, "vehicle issue", false)
	assert.Equal(t, models.CancelledByDriver, rec.By)
	assert.True(t, rec.Chargeable)
	assert.Equal(t, 150.0, rec.Fee)

	rec = policy.Evaluate(ride, driverActor, true).Record(driverActor, ride, "flat tyre on the highway", true)
	assert.Equal(t, models.CancelledByDriver, rec.By)
	assert.True(t, rec.Emergency)
	assert.False(t, rec.Chargeable)
	assert.Zero(t, rec.Fee)

	rec = policy.Evaluate(ride, models.SystemActor(), false).Record(models.SystemActor(), ride, "fraud", false)
	assert.Equal(t, models.CancelledBySystem, rec.By)
}
