package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

// ==================== Role Tests ====================

func TestUserRole_Constants(t *testing.T) {
	tests := []struct {
		name     string
		role     UserRole
		expected string
	}{
		{"rider role", RoleRider, "rider"},
		{"driver role", RoleDriver, "driver"},
		{"admin role", RoleAdmin, "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.role) != tt.expected {
				t.Errorf("Role = %s, want %s", string(tt.role), tt.expected)
			}
		})
	}
}

func TestNewActor(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		role     UserRole
		expected ActorRole
		wantErr  bool
	}{
		{RoleRider, ActorRider, false},
		{RoleDriver, ActorDriver, false},
		{RoleAdmin, ActorSystem, false},
		{UserRole("guest"), "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			actor, err := NewActor(id, tt.role)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewActor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if actor.Role != tt.expected {
				t.Errorf("Role = %s, want %s", actor.Role, tt.expected)
			}
		})
	}
}

// ==================== Status Tests ====================

func TestParseRideStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    RideStatus
		wantErr bool
	}{
		{"requested", RideStatusRequested, false},
		{"  IN_TRANSIT ", RideStatusInTransit, false},
		{"Driver_Assigned", RideStatusDriverAssigned, false},
		{"started", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRideStatus(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRideStatus(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRideStatus(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestRideStatus_Terminal(t *testing.T) {
	for _, status := range AllRideStatuses {
		want := status == RideStatusCompleted || status == RideStatusCancelled
		if status.Terminal() != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, status.Terminal(), want)
		}
	}
}

// ==================== Ride Tests ====================

func newTestRide() *Ride {
	driverID := uuid.New()
	actual := 5.5
	accepted := time.Date(2026, 1, 1, 10, 5, 0, 0, time.UTC)
	stars := 4
	feedback := "smooth"

	return &Ride{
		ID:       uuid.New(),
		RiderID:  uuid.New(),
		DriverID: &driverID,
		Status:   RideStatusAccepted,
		RideType: RideTypeEconomy,
		Distance: Distance{EstimatedKm: 5, ActualKm: &actual},
		Fare: Fare{
			BaseFare: 150, DistanceFare: 250, TotalFare: 400, Currency: "BDT",
			Adjustment: &FareAdjustment{Reason: "detour", EstimatedTotal: 400, Delta: 25},
		},
		Timestamps: RideTimestamps{
			Requested: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
			Accepted:  &accepted,
		},
		Cancellation: &Cancellation{By: CancelledByRider, Reason: "late"},
		Rating:       Rating{RiderRating: &stars, RiderFeedback: &feedback},
	}
}

func TestRide_CloneIsDeep(t *testing.T) {
	original := newTestRide()
	clone := original.Clone()

	*clone.DriverID = uuid.New()
	*clone.Distance.ActualKm = 99
	clone.Fare.Adjustment.Reason = "changed"
	*clone.Timestamps.Accepted = clone.Timestamps.Accepted.Add(time.Hour)
	clone.Cancellation.Reason = "changed"
	*clone.Rating.RiderRating = 1
	*clone.Rating.RiderFeedback = "changed"

	if *original.DriverID == *clone.DriverID {
		t.Error("DriverID shared between clone and original")
	}
	if *original.Distance.ActualKm != 5.5 {
		t.Error("ActualKm shared between clone and original")
	}
	if original.Fare.Adjustment.Reason != "detour" {
		t.Error("fare adjustment shared between clone and original")
	}
	if original.Timestamps.Accepted.Hour() != 10 {
		t.Error("timestamps shared between clone and original")
	}
	if original.Cancellation.Reason != "late" {
		t.Error("cancellation shared between clone and original")
	}
	if *original.Rating.RiderRating != 4 || *original.Rating.RiderFeedback != "smooth" {
		t.Error("rating shared between clone and original")
	}
}

func TestRide_CloneNil(t *testing.T) {
	var ride *Ride
	if ride.Clone() != nil {
		t.Error("Clone of nil ride should be nil")
	}
}

func TestRideTimestamps_Latest(t *testing.T) {
	ride := newTestRide()
	if got := ride.Timestamps.Latest(); !got.Equal(*ride.Timestamps.Accepted) {
		t.Errorf("Latest() = %v, want %v", got, *ride.Timestamps.Accepted)
	}

	ride.Timestamps.Accepted = nil
	if got := ride.Timestamps.Latest(); !got.Equal(ride.Timestamps.Requested) {
		t.Errorf("Latest() = %v, want requested time", got)
	}
}

func TestRide_Participants(t *testing.T) {
	ride := newTestRide()

	if !ride.IsRider(ride.RiderID) {
		t.Error("expected rider to be recognised")
	}
	if !ride.IsDriver(*ride.DriverID) {
		t.Error("expected driver to be recognised")
	}
	if (Actor{ID: uuid.New(), Role: ActorRider}).CanView(ride) {
		t.Error("stranger must not view the ride")
	}
	if !SystemActor().CanView(ride) {
		t.Error("system must view any ride")
	}
}

func TestRide_JSON_Marshaling(t *testing.T) {
	ride := newTestRide()
	ride.Cancellation = nil

	data, err := json.Marshal(ride)
	if err != nil {
		t.Fatalf("Failed to marshal ride: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal ride: %v", err)
	}

	if decoded["status"] != "accepted" {
		t.Errorf("status = %v, want accepted", decoded["status"])
	}
	if _, ok := decoded["cancellation"]; !ok {
		t.Error("cancellation should always be present, null when absent")
	}
	fare := decoded["fare"].(map[string]interface{})
	if fare["total_fare"] != 400.0 {
		t.Errorf("total_fare = %v, want 400", fare["total_fare"])
	}
}
