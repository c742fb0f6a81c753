package repository

import (
	"context"

	"ride/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetByRideID retrieves the trip for a ride (ride_id is unique on trips).
	GetByRideID(ctx context.Context, rideID string) (*domain.Trip, error)

	// Update persists the full trip row.
	Update(ctx context.Context, trip *domain.Trip) error

	// GetActiveByDriverID retrieves the driver's trip in {CREATED, STARTED,
	// PAUSED}, if any. Returns nil, nil if none exists.
	GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error)
}
