package domain

import "time"

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
)

// DefaultMaxRetries bounds how many failed PSP charge attempts the Outbox
// Worker allows for a payment before marking it FAILED.
const DefaultMaxRetries = 3

// Payment represents a payment for a trip, driven to a terminal state by
// PSP acknowledgement (PROCESSING) and a later signed webhook (COMPLETED or
// FAILED) — the PSP's synchronous accept is never itself terminal.
//
// RetryCount <= MaxRetries always; NextRetryAt is non-zero only while
// Status == PENDING.
type Payment struct {
	ID               string
	TripID           string // unique
	Amount           float64
	Status           PaymentStatus
	IdempotencyKey   string
	PSPTransactionID string
	PSPResponse      string // opaque JSON captured from the PSP
	RetryCount       int
	MaxRetries       int
	FailureReason    string
	LastRetryAt      time.Time
	NextRetryAt      time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
