package models

import (
	"fmt"

	"github.com/google/uuid"
)

// UserRole is the role carried in an access token
type UserRole string

const (
	RoleRider  UserRole = "rider"
	RoleDriver UserRole = "driver"
	RoleAdmin  UserRole = "admin"
)

// ActorRole is the capacity in which a principal acts on a ride
type ActorRole string

const (
	ActorRider  ActorRole = "rider"
	ActorDriver ActorRole = "driver"
	ActorSystem ActorRole = "system"
)

// Actor is the authenticated principal issuing a ride command
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role ActorRole `json:"role"`
}

// NewActor maps a token role onto an actor. Admins act as the system.
func NewActor(id uuid.UUID, role UserRole) (Actor, error) {
	switch role {
	case RoleRider:
		return Actor{ID: id, Role: ActorRider}, nil
	case RoleDriver:
		return Actor{ID: id, Role: ActorDriver}, nil
	case RoleAdmin:
		return Actor{ID: id, Role: ActorSystem}, nil
	default:
		return Actor{}, fmt.Errorf("unsupported role %q", role)
	}
}

// SystemActor is used for commands issued by the platform itself.
func SystemActor() Actor {
	return Actor{ID: uuid.Nil, Role: ActorSystem}
}

// IsSystem reports whether the actor bypasses participant checks.
func (a Actor) IsSystem() bool {
	return a.Role == ActorSystem
}

// CanView reports whether the actor may read the ride.
func (a Actor) CanView(r *Ride) bool {
	return a.IsSystem() || r.IsRider(a.ID) || r.IsDriver(a.ID)
}
