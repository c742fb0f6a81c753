package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ride/internal/domain"
	"ride/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q         Querier
	forUpdate bool
}

// NewPaymentRepository creates a new PostgreSQL payment repository over db.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository scoped to tx;
// GetByID and GetByTripID take a row lock — the Outbox Worker always reads
// this way before deciding the next retry action.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx, forUpdate: true}
}

const paymentColumns = `id, trip_id, amount, status, idempotency_key, psp_transaction_id, psp_response,
	retry_count, max_retries, failure_reason, last_retry_at, next_retry_at, created_at, updated_at`

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, trip_id, amount, status, idempotency_key, psp_transaction_id, psp_response,
			retry_count, max_retries, failure_reason, last_retry_at, next_retry_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.q.ExecContext(ctx, query,
		payment.ID, payment.TripID, payment.Amount, payment.Status, payment.IdempotencyKey,
		nullString(payment.PSPTransactionID), nullString(payment.PSPResponse),
		payment.RetryCount, payment.MaxRetries, nullString(payment.FailureReason),
		nullTime(payment.LastRetryAt), nullTime(payment.NextRetryAt),
		payment.CreatedAt, payment.UpdatedAt,
	)
	return err
}

func scanPayment(row *sql.Row) (*domain.Payment, error) {
	var payment domain.Payment
	var pspTxnID, pspResponse, failureReason sql.NullString
	var lastRetryAt, nextRetryAt sql.NullTime

	err := row.Scan(
		&payment.ID, &payment.TripID, &payment.Amount, &payment.Status, &payment.IdempotencyKey,
		&pspTxnID, &pspResponse, &payment.RetryCount, &payment.MaxRetries, &failureReason,
		&lastRetryAt, &nextRetryAt, &payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	payment.PSPTransactionID = pspTxnID.String
	payment.PSPResponse = pspResponse.String
	payment.FailureReason = failureReason.String
	payment.LastRetryAt = lastRetryAt.Time
	payment.NextRetryAt = nextRetryAt.Time
	return &payment, nil
}

// GetByID retrieves a payment by ID, locking the row FOR UPDATE when scoped
// to a transaction.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}
	return scanPayment(r.q.QueryRowContext(ctx, query, id))
}

// GetByTripID retrieves the payment for a trip (trip_id is unique on
// payments).
func (r *PaymentRepository) GetByTripID(ctx context.Context, tripID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE trip_id = $1`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}
	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, tripID))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return payment, err
}

// Update persists the full payment row.
func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET trip_id = $1, amount = $2, status = $3, idempotency_key = $4, psp_transaction_id = $5,
		    psp_response = $6, retry_count = $7, max_retries = $8, failure_reason = $9,
		    last_retry_at = $10, next_retry_at = $11, updated_at = $12
		WHERE id = $13
	`
	result, err := r.q.ExecContext(ctx, query,
		payment.TripID, payment.Amount, payment.Status, payment.IdempotencyKey,
		nullString(payment.PSPTransactionID), nullString(payment.PSPResponse),
		payment.RetryCount, payment.MaxRetries, nullString(payment.FailureReason),
		nullTime(payment.LastRetryAt), nullTime(payment.NextRetryAt), payment.UpdatedAt, payment.ID,
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

// Ensure PaymentRepository implements repository.PaymentRepository.
var _ repository.PaymentRepository = (*PaymentRepository)(nil)
