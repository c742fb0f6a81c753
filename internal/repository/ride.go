package repository

import (
	"context"
	"time"

	"ride/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// ListMatching returns rides in MATCHING status created after cutoff,
	// ordered by created_at ascending, limited to limit rows. Backs the
	// Dispatch Worker's poll query.
	ListMatching(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Ride, error)

	// Update persists the full ride row.
	Update(ctx context.Context, ride *domain.Ride) error
}
