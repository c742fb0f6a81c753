package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ride/internal/apperr"
	"ride/internal/domain"
	"ride/internal/eventbus"
	"ride/internal/psp"
	"ride/internal/repository"
	"ride/internal/repository/postgres"
	"ride/internal/txrunner"
)

// outboxPaymentPayload is the JSON body stored on a PAYMENT_INITIATED /
// PAYMENT_RETRY outbox row; the Outbox Worker decodes it to know what to
// charge.
type outboxPaymentPayload struct {
	PaymentID string  `json:"payment_id"`
	TripID    string  `json:"trip_id"`
	Amount    float64 `json:"amount"`
}

// PaymentService implements the write side of Payment: create_payment
// persists a PENDING payment and an outbox row in the same transaction, so
// a charge is never initiated for a payment the database doesn't yet know
// about, and never silently dropped if the process dies between the two
// writes. The read/retry/webhook side lives in the Outbox Worker and the
// webhook handler, which both call back into this service.
type PaymentService struct {
	db                  *sql.DB
	paymentRepo         repository.PaymentRepository
	outboxRepo          repository.OutboxRepository
	tripRepo            repository.TripRepository
	rideRepo            repository.RideRepository
	notificationService *NotificationService
	bus                 *eventbus.Bus
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	db *sql.DB,
	paymentRepo repository.PaymentRepository,
	outboxRepo repository.OutboxRepository,
	tripRepo repository.TripRepository,
	rideRepo repository.RideRepository,
	notificationService *NotificationService,
	bus *eventbus.Bus,
) *PaymentService {
	return &PaymentService{
		db:                  db,
		paymentRepo:         paymentRepo,
		outboxRepo:          outboxRepo,
		tripRepo:            tripRepo,
		rideRepo:            rideRepo,
		notificationService: notificationService,
		bus:                 bus,
	}
}

const paymentIdempotencyPrefix = "payment:"

func paymentIdempotencyKey(tripID string) string {
	return paymentIdempotencyPrefix + tripID
}

// CreatePaymentRequest contains the parameters for initiating a payment.
type CreatePaymentRequest struct {
	TripID string
	Amount float64
}

// CreatePayment persists a PENDING payment for a trip and an accompanying
// PAYMENT_INITIATED outbox row, atomically. Calling it twice for the same
// trip is idempotent: the second call observes the first payment under the
// trip_id unique constraint and returns it unchanged rather than double
// charging.
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*domain.Payment, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidPaymentAmount
	}

	var payment *domain.Payment

	err := txrunner.Run(ctx, s.db, func(tx *sql.Tx) error {
		txPaymentRepo := postgres.NewPaymentRepositoryWithTx(tx)
		txOutboxRepo := postgres.NewOutboxRepositoryWithTx(tx)

		existing, err := txPaymentRepo.GetByTripID(ctx, req.TripID)
		if err != nil {
			return err
		}
		if existing != nil {
			payment = existing
			return nil
		}

		now := time.Now()
		p := &domain.Payment{
			ID:             uuid.New().String(),
			TripID:         req.TripID,
			Amount:         req.Amount,
			Status:         domain.PaymentStatusPending,
			IdempotencyKey: paymentIdempotencyKey(req.TripID),
			MaxRetries:     domain.DefaultMaxRetries,
			NextRetryAt:    now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := txPaymentRepo.Create(ctx, p); err != nil {
			return err
		}

		body, err := json.Marshal(outboxPaymentPayload{PaymentID: p.ID, TripID: p.TripID, Amount: p.Amount})
		if err != nil {
			return err
		}
		event := &domain.OutboxEvent{
			ID:            uuid.New().String(),
			AggregateType: string(domain.EntityPayment),
			AggregateID:   p.ID,
			EventType:     domain.OutboxEventPaymentInitiated,
			Payload:       string(body),
			CreatedAt:     now,
		}
		if err := txOutboxRepo.Create(ctx, event); err != nil {
			return err
		}

		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return payment, nil
}

// GetPayment retrieves a payment by ID.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, ErrInvalidPaymentID
	}
	return s.paymentRepo.GetByID(ctx, paymentID)
}

// HandleWebhook applies a verified PSP webhook to the payment it
// references, driving it to COMPLETED or FAILED. This is the only path to
// COMPLETED; the Outbox Worker's accepted PSP.Charge only reaches
// PROCESSING, and its one terminal write is FAILED once retries are
// exhausted.
func (s *PaymentService) HandleWebhook(ctx context.Context, ev *psp.WebhookEvent) error {
	tripID := strings.TrimPrefix(ev.IdempotencyKey, paymentIdempotencyPrefix)
	if tripID == "" || tripID == ev.IdempotencyKey {
		return apperr.New(apperr.ValidationFailed, "webhook idempotency key is not a payment key")
	}

	var payment *domain.Payment
	var riderID string

	err := txrunner.Run(ctx, s.db, func(tx *sql.Tx) error {
		txPaymentRepo := postgres.NewPaymentRepositoryWithTx(tx)
		txOutboxRepo := postgres.NewOutboxRepositoryWithTx(tx)

		p, err := txPaymentRepo.GetByTripID(ctx, tripID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrInvalidPaymentID
		}

		if p.Status == domain.PaymentStatusCompleted || p.Status == domain.PaymentStatusFailed {
			payment = p
			return nil // already terminal: webhook redelivery, idempotent no-op
		}

		p.PSPTransactionID = ev.PSPTransactionID
		p.PSPResponse = ev.RawResponse
		p.UpdatedAt = time.Now()

		switch ev.Status {
		case "COMPLETED":
			p.Status = domain.PaymentStatusCompleted
			p.NextRetryAt = time.Time{}
		case "FAILED":
			p.Status = domain.PaymentStatusFailed
			p.FailureReason = ev.FailureReason
			p.NextRetryAt = time.Time{}
		default:
			return apperr.New(apperr.ValidationFailed, fmt.Sprintf("unrecognized webhook status %q", ev.Status))
		}

		if err := txPaymentRepo.Update(ctx, p); err != nil {
			return err
		}
		if err := txOutboxRepo.MarkProcessedByAggregate(ctx, string(domain.EntityPayment), p.ID); err != nil {
			return err
		}

		trip, err := s.tripRepo.GetByID(ctx, p.TripID)
		if err == nil {
			if ride, err := s.rideRepo.GetByID(ctx, trip.RideID); err == nil {
				riderID = ride.RiderID
			}
		}

		payment = p
		return nil
	})
	if err != nil {
		return err
	}

	if s.bus != nil {
		switch payment.Status {
		case domain.PaymentStatusCompleted:
			s.bus.Publish(eventbus.Event{
				Type:    eventbus.PaymentCompleted,
				Payload: eventbus.PaymentCompletedPayload{PaymentID: payment.ID, TripID: payment.TripID, Amount: payment.Amount},
			})
		case domain.PaymentStatusFailed:
			s.bus.Publish(eventbus.Event{
				Type:    eventbus.PaymentFailed,
				Payload: eventbus.PaymentFailedPayload{PaymentID: payment.ID, TripID: payment.TripID, Reason: payment.FailureReason},
			})
		}
	}

	if s.notificationService != nil && riderID != "" {
		switch payment.Status {
		case domain.PaymentStatusCompleted:
			_ = s.notificationService.NotifyPaymentCompleted(ctx, payment, riderID)
		case domain.PaymentStatusFailed:
			_ = s.notificationService.NotifyPaymentFailed(ctx, payment, riderID)
		}
	}

	return nil
}
