package rides

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/richxcame/ride-lifecycle/pkg/database"
	"github.com/richxcame/ride-lifecycle/pkg/models"
	"github.com/richxcame/ride-lifecycle/pkg/tracing"
)

const repositoryTracer = "rides-repository"

var (
	// ErrRideNotFound is returned when no ride has the requested id
	ErrRideNotFound = errors.New("ride not found")
	// ErrVersionConflict is returned when another writer persisted first
	ErrVersionConflict = errors.New("ride version conflict")
)

// DB is satisfied by *pgxpool.Pool
type DB interface {
	database.TxBeginner
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores rides in PostgreSQL
type PostgresRepository struct {
	db DB
}

// NewRepository creates a new rides repository
func NewRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const rideColumns = `
	id, rider_id, driver_id, status, ride_type,
	pickup_address, pickup_latitude, pickup_longitude,
	destination_address, destination_latitude, destination_longitude,
	estimated_distance_km, actual_distance_km, estimated_duration_min,
	base_fare, distance_fare, time_fare, total_fare, currency, fare_adjustment,
	requested_at, driver_assigned_at, accepted_at, picked_up_at, in_transit_at, completed_at, cancelled_at,
	cancellation, rider_rating, rider_feedback, driver_rating, driver_feedback,
	version, created_at, updated_at`

// Create inserts a requested ride together with its first transition row
func (r *PostgresRepository) Create(ctx context.Context, ride *models.Ride, transition models.RideTransition) error {
	query := `
		INSERT INTO rides (
			id, rider_id, driver_id, status, ride_type,
			pickup_address, pickup_latitude, pickup_longitude,
			destination_address, destination_latitude, destination_longitude,
			estimated_distance_km, actual_distance_km, estimated_duration_min,
			base_fare, distance_fare, time_fare, total_fare, currency, fare_adjustment,
			requested_at, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, 1)
		RETURNING version, created_at, updated_at
	`

	adjustment, err := marshalNullable(ride.Fare.Adjustment)
	if err != nil {
		return err
	}

	// Returned columns are only copied onto ride after the commit so a retried
	// transaction never sees values from an attempt that rolled back.
	var (
		version          int64
		created, updated = ride.CreatedAt, ride.UpdatedAt
	)
	err = tracing.TraceDBQuery(ctx, repositoryTracer, "INSERT", "rides", func(ctx context.Context) error {
		return database.RetryableTransaction(ctx, r.db, func(tx pgx.Tx) error {
			err := tx.QueryRow(ctx, query,
				ride.ID, ride.RiderID, ride.DriverID, ride.Status, ride.RideType,
				ride.Pickup.Address, ride.Pickup.Latitude, ride.Pickup.Longitude,
				ride.Destination.Address, ride.Destination.Latitude, ride.Destination.Longitude,
				ride.Distance.EstimatedKm, ride.Distance.ActualKm, ride.Distance.EstimatedDurationMin,
				ride.Fare.BaseFare, ride.Fare.DistanceFare, ride.Fare.TimeFare, ride.Fare.TotalFare, ride.Fare.Currency, adjustment,
				ride.Timestamps.Requested,
			).Scan(&version, &created, &updated)
			if err != nil {
				return fmt.Errorf("failed to create ride: %w", err)
			}
			return insertTransition(ctx, tx, transition)
		})
	})
	if err != nil {
		return err
	}

	ride.Version, ride.CreatedAt, ride.UpdatedAt = version, created, updated
	return nil
}

// Get retrieves a ride by ID
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	var ride *models.Ride
	err := tracing.TraceDBQuery(ctx, repositoryTracer, "SELECT", "rides", func(ctx context.Context) error {
		var err error
		ride, err = scanRide(r.db.QueryRow(ctx, query, id))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	return ride, nil
}

// Update persists every mutable column of ride if ride.Version still matches
// the stored version, and appends transition in the same transaction.
func (r *PostgresRepository) Update(ctx context.Context, ride *models.Ride, transition *models.RideTransition) error {
	query := `
		UPDATE rides SET
			driver_id = $3, status = $4, actual_distance_km = $5,
			base_fare = $6, distance_fare = $7, time_fare = $8, total_fare = $9, currency = $10, fare_adjustment = $11,
			driver_assigned_at = $12, accepted_at = $13, picked_up_at = $14, in_transit_at = $15,
			completed_at = $16, cancelled_at = $17, cancellation = $18,
			rider_rating = $19, rider_feedback = $20, driver_rating = $21, driver_feedback = $22,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at
	`

	adjustment, err := marshalNullable(ride.Fare.Adjustment)
	if err != nil {
		return err
	}
	cancellation, err := marshalNullable(ride.Cancellation)
	if err != nil {
		return err
	}

	// ride.Version is the expected version on every attempt; the bumped one is
	// only copied back once the transaction has committed.
	var (
		version int64
		updated = ride.UpdatedAt
	)
	err = tracing.TraceDBQuery(ctx, repositoryTracer, "UPDATE", "rides", func(ctx context.Context) error {
		return database.RetryableTransaction(ctx, r.db, func(tx pgx.Tx) error {
			ts := ride.Timestamps
			err := tx.QueryRow(ctx, query,
				ride.ID, ride.Version,
				ride.DriverID, ride.Status, ride.Distance.ActualKm,
				ride.Fare.BaseFare, ride.Fare.DistanceFare, ride.Fare.TimeFare, ride.Fare.TotalFare, ride.Fare.Currency, adjustment,
				ts.DriverAssigned, ts.Accepted, ts.PickedUp, ts.InTransit,
				ts.Completed, ts.Cancelled, cancellation,
				ride.Rating.RiderRating, ride.Rating.RiderFeedback, ride.Rating.DriverRating, ride.Rating.DriverFeedback,
			).Scan(&version, &updated)
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrVersionConflict
			}
			if err != nil {
				return fmt.Errorf("failed to update ride: %w", err)
			}

			if transition != nil {
				return insertTransition(ctx, tx, *transition)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	ride.Version = version
	ride.UpdatedAt = updated
	return nil
}

func insertTransition(ctx context.Context, tx pgx.Tx, t models.RideTransition) error {
	query := `
		INSERT INTO ride_transitions (id, ride_id, from_status, to_status, actor_id, actor_role, note, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var from, note *string
	if t.FromStatus != "" {
		s := string(t.FromStatus)
		from = &s
	}
	if t.Note != "" {
		note = &t.Note
	}

	if _, err := tx.Exec(ctx, query, t.ID, t.RideID, from, t.ToStatus, t.ActorID, t.ActorRole, note, t.OccurredAt); err != nil {
		return fmt.Errorf("failed to record ride transition: %w", err)
	}
	return nil
}

func scanRide(row pgx.Row) (*models.Ride, error) {
	var (
		ride         models.Ride
		adjustment   []byte
		cancellation []byte
	)

	err := row.Scan(
		&ride.ID, &ride.RiderID, &ride.DriverID, &ride.Status, &ride.RideType,
		&ride.Pickup.Address, &ride.Pickup.Latitude, &ride.Pickup.Longitude,
		&ride.Destination.Address, &ride.Destination.Latitude, &ride.Destination.Longitude,
		&ride.Distance.EstimatedKm, &ride.Distance.ActualKm, &ride.Distance.EstimatedDurationMin,
		&ride.Fare.BaseFare, &ride.Fare.DistanceFare, &ride.Fare.TimeFare, &ride.Fare.TotalFare, &ride.Fare.Currency, &adjustment,
		&ride.Timestamps.Requested, &ride.Timestamps.DriverAssigned, &ride.Timestamps.Accepted,
		&ride.Timestamps.PickedUp, &ride.Timestamps.InTransit, &ride.Timestamps.Completed, &ride.Timestamps.Cancelled,
		&cancellation,
		&ride.Rating.RiderRating, &ride.Rating.RiderFeedback, &ride.Rating.DriverRating, &ride.Rating.DriverFeedback,
		&ride.Version, &ride.CreatedAt, &ride.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(adjustment) > 0 {
		ride.Fare.Adjustment = &models.FareAdjustment{}
		if err := json.Unmarshal(adjustment, ride.Fare.Adjustment); err != nil {
			return nil, fmt.Errorf("decode fare adjustment: %w", err)
		}
	}
	if len(cancellation) > 0 {
		ride.Cancellation = &models.Cancellation{}
		if err := json.Unmarshal(cancellation, ride.Cancellation); err != nil {
			return nil, fmt.Errorf("decode cancellation: %w", err)
		}
	}
	return &ride, nil
}

// marshalNullable encodes v as JSON, or returns nil so the column stays NULL
func marshalNullable[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return data, nil
}
