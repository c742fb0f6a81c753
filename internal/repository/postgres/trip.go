package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ride/internal/domain"
	"ride/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q         Querier
	forUpdate bool
}

// NewTripRepository creates a new PostgreSQL trip repository over db.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository scoped to tx; GetByID
// and GetByRideID take a row lock.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx, forUpdate: true}
}

const tripColumns = `id, ride_id, driver_id, status, started_at, ended_at, paused_at, total_paused_seconds,
	distance_km, duration_sec, base_fare, total_fare, created_at, updated_at`

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (id, ride_id, driver_id, status, started_at, ended_at, paused_at, total_paused_seconds,
			distance_km, duration_sec, base_fare, total_fare, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.q.ExecContext(ctx, query,
		trip.ID, trip.RideID, trip.DriverID, trip.Status,
		nullTime(trip.StartedAt), nullTime(trip.EndedAt), nullTime(trip.PausedAt),
		int64(trip.TotalPaused.Seconds()), trip.DistanceKm, trip.DurationSec,
		trip.BaseFare, trip.TotalFare, trip.CreatedAt, trip.UpdatedAt,
	)
	return err
}

func scanTrip(row *sql.Row) (*domain.Trip, error) {
	var trip domain.Trip
	var startedAt, endedAt, pausedAt sql.NullTime
	var totalPausedSeconds int64

	err := row.Scan(
		&trip.ID, &trip.RideID, &trip.DriverID, &trip.Status,
		&startedAt, &endedAt, &pausedAt, &totalPausedSeconds,
		&trip.DistanceKm, &trip.DurationSec, &trip.BaseFare, &trip.TotalFare,
		&trip.CreatedAt, &trip.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	trip.StartedAt = startedAt.Time
	trip.EndedAt = endedAt.Time
	trip.PausedAt = pausedAt.Time
	trip.TotalPaused = time.Duration(totalPausedSeconds) * time.Second
	return &trip, nil
}

// GetByID retrieves a trip by ID, locking the row FOR UPDATE when scoped to
// a transaction.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}
	return scanTrip(r.q.QueryRowContext(ctx, query, id))
}

// GetByRideID retrieves the trip for a ride (ride_id is unique on trips).
func (r *TripRepository) GetByRideID(ctx context.Context, rideID string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE ride_id = $1`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}
	return scanTrip(r.q.QueryRowContext(ctx, query, rideID))
}

// Update persists the full trip row.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET ride_id = $1, driver_id = $2, status = $3, started_at = $4, ended_at = $5, paused_at = $6,
		    total_paused_seconds = $7, distance_km = $8, duration_sec = $9, base_fare = $10, total_fare = $11,
		    updated_at = $12
		WHERE id = $13
	`
	result, err := r.q.ExecContext(ctx, query,
		trip.RideID, trip.DriverID, trip.Status,
		nullTime(trip.StartedAt), nullTime(trip.EndedAt), nullTime(trip.PausedAt),
		int64(trip.TotalPaused.Seconds()), trip.DistanceKm, trip.DurationSec,
		trip.BaseFare, trip.TotalFare, trip.UpdatedAt, trip.ID,
	)
	if err != nil {
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

// GetActiveByDriverID retrieves the driver's trip in {CREATED, STARTED,
// PAUSED}, if any. Returns nil, nil if none exists.
func (r *TripRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips
	          WHERE driver_id = $1 AND status IN ($2, $3, $4)
	          LIMIT 1`
	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, driverID,
		domain.TripStatusCreated, domain.TripStatusStarted, domain.TripStatusPaused))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return trip, err
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
