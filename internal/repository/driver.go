package repository

import (
	"context"

	"ride/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create adds a new driver.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID, locking the row FOR UPDATE if tx is
	// a transaction-scoped repository.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetByPhone retrieves a driver by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.Driver, error)

	// List retrieves drivers, optionally filtered by status.
	List(ctx context.Context, status domain.DriverStatus, limit int) ([]*domain.Driver, error)

	// UpdateStatus writes the driver's status.
	UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error

	// UpdateLocation writes the driver's last known position, used by the
	// asynchronous geo.Writer to persist fast-path location reports.
	UpdateLocation(ctx context.Context, id string, lat, lon float64) error
}
