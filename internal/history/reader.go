// Package history reads the ride transition audit trail. It runs on a
// separate database/sql pool so reporting queries can target a replica.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/richxcame/ride-lifecycle/pkg/models"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// Open connects to dsn with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns / 2)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	return db, nil
}

// Reader queries the ride_transitions table
type Reader struct {
	db Querier
}

// NewReader creates a new history reader
func NewReader(db Querier) *Reader {
	return &Reader{db: db}
}

// ListByRide returns the transitions of a ride, oldest first.
func (r *Reader) ListByRide(ctx context.Context, rideID uuid.UUID) ([]models.RideTransition, error) {
	query := `
		SELECT id, ride_id, from_status, to_status, actor_id, actor_role, note, occurred_at
		FROM ride_transitions
		WHERE ride_id = $1
		ORDER BY occurred_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, rideID)
	if err != nil {
		return nil, fmt.Errorf("query ride transitions: %w", err)
	}
	defer rows.Close()

	transitions := []models.RideTransition{}
	for rows.Next() {
		var (
			t    models.RideTransition
			from sql.NullString
			note sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.RideID, &from, &t.ToStatus, &t.ActorID, &t.ActorRole, &note, &t.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan ride transition: %w", err)
		}
		t.FromStatus = models.RideStatus(from.String)
		t.Note = note.String
		transitions = append(transitions, t)
	}
	return transitions, rows.Err()
}

// CountByStatus returns how many rides entered each status since the given time.
func (r *Reader) CountByStatus(ctx context.Context, since time.Time) (map[models.RideStatus]int, error) {
	query := `
		SELECT to_status, COUNT(*)
		FROM ride_transitions
		WHERE occurred_at >= $1
		GROUP BY to_status
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("count ride transitions: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.RideStatus]int)
	for rows.Next() {
		var (
			status models.RideStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan transition count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
