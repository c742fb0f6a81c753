package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"ride/internal/domain"
	"ride/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q         Querier
	forUpdate bool
}

// NewRideRepository creates a new PostgreSQL ride repository over db.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository scoped to tx; GetByID
// takes a row lock.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx, forUpdate: true}
}

const rideColumns = `id, rider_id, pickup_lat, pickup_lng, destination_lat, destination_lng,
	tier, payment_method, status, surge_multiplier, assigned_driver_id, assigned_at,
	created_at, updated_at, cancelled_at, cancel_reason`

// ErrConcurrentAssignment is returned when a unique-constraint violation on
// assigned_driver_id indicates another assign() won the race.
var ErrConcurrentAssignment = errors.New("postgres: concurrent ride assignment")

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (id, rider_id, pickup_lat, pickup_lng, destination_lat, destination_lng,
			tier, payment_method, status, surge_multiplier, assigned_driver_id, assigned_at,
			created_at, updated_at, cancelled_at, cancel_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.q.ExecContext(ctx, query,
		ride.ID, ride.RiderID, ride.PickupLat, ride.PickupLng, ride.DestinationLat, ride.DestinationLng,
		ride.Tier, ride.PaymentMethod, ride.Status, nonZeroSurge(ride.SurgeMultiplier),
		nullString(ride.AssignedDriverID), nullTime(ride.AssignedAt),
		ride.CreatedAt, ride.UpdatedAt, nullTime(ride.CancelledAt), nullString(ride.CancelReason),
	)
	return err
}

func (r *RideRepository) scanRide(row *sql.Row) (*domain.Ride, error) {
	var ride domain.Ride
	var assignedDriverID, cancelReason sql.NullString
	var assignedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&ride.ID, &ride.RiderID, &ride.PickupLat, &ride.PickupLng, &ride.DestinationLat, &ride.DestinationLng,
		&ride.Tier, &ride.PaymentMethod, &ride.Status, &ride.SurgeMultiplier,
		&assignedDriverID, &assignedAt, &ride.CreatedAt, &ride.UpdatedAt, &cancelledAt, &cancelReason,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	ride.AssignedDriverID = assignedDriverID.String
	ride.AssignedAt = assignedAt.Time
	ride.CancelledAt = cancelledAt.Time
	ride.CancelReason = cancelReason.String
	return &ride, nil
}

// GetByID retrieves a ride by ID, locking the row FOR UPDATE when scoped to
// a transaction.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}
	return r.scanRide(r.q.QueryRowContext(ctx, query, id))
}

// ListMatching returns rides in MATCHING status created after cutoff,
// ordered by created_at ascending, limited to limit rows — backs the
// Dispatch Worker's poll query.
func (r *RideRepository) ListMatching(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides
	          WHERE status = $1 AND created_at > $2
	          ORDER BY created_at ASC LIMIT $3`
	rows, err := r.q.QueryContext(ctx, query, domain.RideStatusMatching, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		var ride domain.Ride
		var assignedDriverID, cancelReason sql.NullString
		var assignedAt, cancelledAt sql.NullTime
		if err := rows.Scan(
			&ride.ID, &ride.RiderID, &ride.PickupLat, &ride.PickupLng, &ride.DestinationLat, &ride.DestinationLng,
			&ride.Tier, &ride.PaymentMethod, &ride.Status, &ride.SurgeMultiplier,
			&assignedDriverID, &assignedAt, &ride.CreatedAt, &ride.UpdatedAt, &cancelledAt, &cancelReason,
		); err != nil {
			return nil, err
		}
		ride.AssignedDriverID = assignedDriverID.String
		ride.AssignedAt = assignedAt.Time
		ride.CancelledAt = cancelledAt.Time
		ride.CancelReason = cancelReason.String
		rides = append(rides, &ride)
	}
	return rides, rows.Err()
}

// Update persists the full ride row. A unique-constraint violation on
// assigned_driver_id (two assign() calls racing for the same driver) is
// translated to ErrConcurrentAssignment so the Dispatch Worker can treat it
// as a retryable miss.
func (r *RideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides
		SET rider_id = $1, pickup_lat = $2, pickup_lng = $3, destination_lat = $4, destination_lng = $5,
		    tier = $6, payment_method = $7, status = $8, surge_multiplier = $9,
		    assigned_driver_id = $10, assigned_at = $11, updated_at = $12, cancelled_at = $13, cancel_reason = $14
		WHERE id = $15
	`
	result, err := r.q.ExecContext(ctx, query,
		ride.RiderID, ride.PickupLat, ride.PickupLng, ride.DestinationLat, ride.DestinationLng,
		ride.Tier, ride.PaymentMethod, ride.Status, nonZeroSurge(ride.SurgeMultiplier),
		nullString(ride.AssignedDriverID), nullTime(ride.AssignedAt), ride.UpdatedAt,
		nullTime(ride.CancelledAt), nullString(ride.CancelReason), ride.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrConcurrentAssignment
		}
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nonZeroSurge(s float64) float64 {
	if s < 1.0 {
		return 1.0
	}
	return s
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
