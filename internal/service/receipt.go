package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ride/internal/domain"
	"ride/internal/eventbus"
	"ride/internal/repository"
)

// ReceiptService implements C11's read-only receipt(trip_id) operation: a
// join of the trip, its ride, and its payment. All fare figures are read
// back exactly as the Trip Service stored them at end() — this service
// never recomputes a fare, it only assembles one that already exists.
type ReceiptService struct {
	tripRepo            repository.TripRepository
	rideRepo            repository.RideRepository
	paymentRepo         repository.PaymentRepository
	notificationService *NotificationService
	bus                 *eventbus.Bus
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(
	tripRepo repository.TripRepository,
	rideRepo repository.RideRepository,
	paymentRepo repository.PaymentRepository,
	notificationService *NotificationService,
	bus *eventbus.Bus,
) *ReceiptService {
	return &ReceiptService{
		tripRepo:            tripRepo,
		rideRepo:            rideRepo,
		paymentRepo:         paymentRepo,
		notificationService: notificationService,
		bus:                 bus,
	}
}

// Get assembles the receipt for a trip. The trip need not be ENDED yet —
// callers checking in-progress trips get a partial receipt with zeroed fare
// fields — but the common case is a completed trip right after End().
func (s *ReceiptService) Get(ctx context.Context, tripID string) (*domain.Receipt, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	ride, err := s.rideRepo.GetByID(ctx, trip.RideID)
	if err != nil {
		return nil, err
	}

	var payment *domain.Payment
	if s.paymentRepo != nil {
		payment, _ = s.paymentRepo.GetByTripID(ctx, trip.ID)
	}

	surgeMultiplier := ride.SurgeMultiplier
	if surgeMultiplier < 1.0 {
		surgeMultiplier = 1.0
	}
	surgeAmount := trip.TotalFare - trip.BaseFare

	paymentStatus := domain.PaymentStatusPending
	if payment != nil {
		paymentStatus = payment.Status
	}

	receipt := &domain.Receipt{
		ID:              uuid.New().String(),
		TripID:          trip.ID,
		RideID:          ride.ID,
		DriverID:        trip.DriverID,
		RiderID:         ride.RiderID,
		PickupLat:       ride.PickupLat,
		PickupLng:       ride.PickupLng,
		DestinationLat:  ride.DestinationLat,
		DestinationLng:  ride.DestinationLng,
		Tier:            ride.Tier,
		BaseFare:        trip.BaseFare,
		SurgeMultiplier: surgeMultiplier,
		SurgeAmount:     surgeAmount,
		TotalFare:       trip.TotalFare,
		PaymentMethod:   ride.PaymentMethod,
		PaymentStatus:   paymentStatus,
		DistanceKm:      trip.DistanceKm,
		DurationSec:     trip.DurationSec,
		StartedAt:       trip.StartedAt,
		EndedAt:         trip.EndedAt,
		CreatedAt:       time.Now(),
	}

	if trip.Status == domain.TripStatusEnded && s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TripReceipt, Payload: eventbus.TripReceiptPayload{TripID: trip.ID}})
	}

	return receipt, nil
}

// Format renders a receipt as plain text, for email or print delivery.
func Format(receipt *domain.Receipt) string {
	return `
=====================================
        RIDE RECEIPT
=====================================
Receipt ID: ` + receipt.ID + `
Trip ID: ` + receipt.TripID + `
Date: ` + receipt.CreatedAt.Format("Jan 02, 2006 3:04 PM") + `

TRIP DETAILS
-------------------------------------
Pickup:      (` + formatFloat(receipt.PickupLat) + `, ` + formatFloat(receipt.PickupLng) + `)
Destination: (` + formatFloat(receipt.DestinationLat) + `, ` + formatFloat(receipt.DestinationLng) + `)
Tier:        ` + string(receipt.Tier) + `
Duration:    ` + formatSeconds(receipt.DurationSec) + `
Distance:    ` + formatFloat(receipt.DistanceKm) + ` km

FARE BREAKDOWN
-------------------------------------
Base Fare:        $` + formatFloat(receipt.BaseFare) + `
Surge (` + formatFloat(receipt.SurgeMultiplier) + `x):   $` + formatFloat(receipt.SurgeAmount) + `
-------------------------------------
TOTAL:            $` + formatFloat(receipt.TotalFare) + `

PAYMENT
-------------------------------------
Method: ` + string(receipt.PaymentMethod) + `
Status: ` + string(receipt.PaymentStatus) + `

=====================================
     Thank you for riding with us!
=====================================
`
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

func formatSeconds(sec int64) string {
	return fmt.Sprintf("%d min", sec/60)
}
