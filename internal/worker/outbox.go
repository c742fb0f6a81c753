package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"ride/internal/apperr"
	"ride/internal/config"
	"ride/internal/domain"
	"ride/internal/eventbus"
	"ride/internal/psp"
	"ride/internal/repository"
	"ride/internal/repository/postgres"
	"ride/internal/service"
	"ride/internal/txrunner"
)

type outboxPaymentPayload struct {
	PaymentID string  `json:"payment_id"`
	TripID    string  `json:"trip_id"`
	Amount    float64 `json:"amount"`
}

// OutboxWorker implements the Outbox Worker: it polls unprocessed
// outbox rows, drives each referenced payment to the PSP, and applies the
// fixed retry schedule on failure. This worker's own writes move a PENDING
// payment only to PROCESSING (the PSP accepted the charge) or, once its
// retries are exhausted, to FAILED; every other terminal outcome arrives
// via the PSP webhook.
type OutboxWorker struct {
	db          *sql.DB
	outboxRepo  repository.OutboxRepository
	paymentRepo repository.PaymentRepository
	pspClient   psp.Client
	bus         *eventbus.Bus
	notify      *service.NotificationService
	tripRepo    repository.TripRepository
	rideRepo    repository.RideRepository
	cfg         config.OutboxConfig
}

// NewOutboxWorker creates a new OutboxWorker.
func NewOutboxWorker(
	db *sql.DB,
	outboxRepo repository.OutboxRepository,
	paymentRepo repository.PaymentRepository,
	tripRepo repository.TripRepository,
	rideRepo repository.RideRepository,
	pspClient psp.Client,
	notify *service.NotificationService,
	bus *eventbus.Bus,
	cfg config.OutboxConfig,
) *OutboxWorker {
	return &OutboxWorker{
		db:          db,
		outboxRepo:  outboxRepo,
		paymentRepo: paymentRepo,
		pspClient:   pspClient,
		bus:         bus,
		notify:      notify,
		tripRepo:    tripRepo,
		rideRepo:    rideRepo,
		cfg:         cfg,
	}
}

// Run polls until ctx is cancelled, processing one batch per tick.
func (w *OutboxWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil {
				log.Printf("outbox worker: batch processing error: %v", err)
			}
		}
	}
}

func (w *OutboxWorker) processBatch(ctx context.Context) error {
	events, err := w.outboxRepo.ListUnprocessed(ctx, w.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		switch event.EventType {
		case domain.OutboxEventPaymentInitiated, domain.OutboxEventPaymentRetry:
			if err := w.processPaymentEvent(ctx, event); err != nil {
				log.Printf("outbox worker: event %s failed: %v", event.ID, err)
			}
		default:
			log.Printf("outbox worker: unknown event type %s, marking processed", event.EventType)
			_ = w.outboxRepo.MarkProcessed(ctx, event.ID)
		}
	}
	return nil
}

func (w *OutboxWorker) processPaymentEvent(ctx context.Context, event *domain.OutboxEvent) error {
	var payload outboxPaymentPayload
	if err := json.Unmarshal([]byte(event.Payload), &payload); err != nil {
		// Malformed payload can never succeed; drop it rather than spin forever.
		log.Printf("outbox worker: malformed payload for event %s: %v", event.ID, err)
		return w.outboxRepo.MarkProcessed(ctx, event.ID)
	}

	var outcome string // "", "charged", "exhausted"
	var payment *domain.Payment

	err := txrunner.Run(ctx, w.db, func(tx *sql.Tx) error {
		txPaymentRepo := postgres.NewPaymentRepositoryWithTx(tx)

		p, err := txPaymentRepo.GetByID(ctx, payload.PaymentID)
		if err != nil {
			return err
		}

		if p.Status != domain.PaymentStatusPending {
			// Already advanced by a webhook or a previous worker pass.
			payment = p
			return nil
		}
		if !p.NextRetryAt.IsZero() && p.NextRetryAt.After(time.Now()) {
			return nil // not due yet; leave the event unprocessed
		}
		if p.RetryCount >= p.MaxRetries {
			p.Status = domain.PaymentStatusFailed
			p.FailureReason = service.ErrMaxRetriesExceeded.Error()
			p.NextRetryAt = time.Time{}
			p.UpdatedAt = time.Now()
			outcome = "exhausted"
			payment = p
			return txPaymentRepo.Update(ctx, p)
		}

		result, chargeErr := w.pspClient.Charge(ctx, psp.ChargeRequest{
			IdempotencyKey: p.IdempotencyKey,
			Amount:         p.Amount,
		})

		now := time.Now()
		p.LastRetryAt = now
		p.UpdatedAt = now

		if chargeErr == nil && result.Accepted {
			p.Status = domain.PaymentStatusProcessing
			p.PSPTransactionID = result.PSPTransactionID
			p.NextRetryAt = time.Time{}
			if err := txPaymentRepo.Update(ctx, p); err != nil {
				return err
			}
			outcome = "charged"
			payment = p
			return nil
		}

		priorRetryCount := p.RetryCount
		p.RetryCount++
		p.FailureReason = failureReason(chargeErr, result)
		p.NextRetryAt = now.Add(outboxRetrySchedule.Cursor(priorRetryCount).NextBackOff())
		if err := txPaymentRepo.Update(ctx, p); err != nil {
			return err
		}
		payment = p
		return nil
	})
	if err != nil {
		return err
	}

	switch outcome {
	case "charged", "exhausted":
		if err := w.outboxRepo.MarkProcessed(ctx, event.ID); err != nil {
			return err
		}
	default:
		if payment != nil && payment.Status != domain.PaymentStatusPending {
			// Resolved by something else already (e.g. webhook) — close it out.
			return w.outboxRepo.MarkProcessed(ctx, event.ID)
		}
		return nil
	}

	if outcome == "exhausted" {
		w.notifyExhausted(ctx, payment)
	}

	return nil
}

func (w *OutboxWorker) notifyExhausted(ctx context.Context, payment *domain.Payment) {
	if w.bus != nil {
		w.bus.Publish(eventbus.Event{
			Type:    eventbus.PaymentFailed,
			Payload: eventbus.PaymentFailedPayload{PaymentID: payment.ID, TripID: payment.TripID, Reason: payment.FailureReason},
		})
	}
	if w.notify == nil {
		return
	}
	trip, err := w.tripRepo.GetByID(ctx, payment.TripID)
	if err != nil {
		return
	}
	ride, err := w.rideRepo.GetByID(ctx, trip.RideID)
	if err != nil {
		return
	}
	_ = w.notify.NotifyPaymentFailed(ctx, payment, ride.RiderID)
}

func failureReason(err error, result psp.ChargeResult) string {
	if err != nil {
		if kind, ok := apperr.KindOf(err); ok {
			return string(kind) + ": " + err.Error()
		}
		return err.Error()
	}
	if result.Reason != "" {
		return result.Reason
	}
	return "psp declined charge"
}
