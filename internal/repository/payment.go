package repository

import (
	"context"

	"ride/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByTripID retrieves the payment for a trip (trip_id is unique on
	// payments).
	GetByTripID(ctx context.Context, tripID string) (*domain.Payment, error)

	// Update persists the full payment row.
	Update(ctx context.Context, payment *domain.Payment) error
}
