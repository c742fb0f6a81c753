package service

import (
	"context"
	"testing"

	"ride/internal/domain"
)

func TestReceiptService_Get_AssemblesFromTripRideAndPayment(t *testing.T) {
	trip := &domain.Trip{
		ID:          "trip-1",
		RideID:      "ride-1",
		DriverID:    "driver-1",
		Status:      domain.TripStatusEnded,
		BaseFare:    20.00,
		TotalFare:   30.00,
		DistanceKm:  12.5,
		DurationSec: 900,
	}
	ride := &domain.Ride{
		ID:              "ride-1",
		RiderID:         "rider-1",
		Tier:            domain.RideTierPremium,
		PaymentMethod:   domain.PaymentMethodCard,
		SurgeMultiplier: 1.5,
	}
	payment := &domain.Payment{ID: "pay-1", TripID: "trip-1", Status: domain.PaymentStatusCompleted}

	svc := NewReceiptService(
		&mockTripRepo{trips: map[string]*domain.Trip{"trip-1": trip}, byRide: map[string]*domain.Trip{"ride-1": trip}},
		&mockRideLookupRepo{rides: map[string]*domain.Ride{"ride-1": ride}},
		&mockPaymentRepo{byID: map[string]*domain.Payment{"pay-1": payment}, byTrip: map[string]*domain.Payment{"trip-1": payment}},
		NewNotificationService(),
		nil,
	)

	receipt, err := svc.Get(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.TotalFare != 30.00 || receipt.BaseFare != 20.00 {
		t.Errorf("expected fares to be read back unchanged, got base=%v total=%v", receipt.BaseFare, receipt.TotalFare)
	}
	if receipt.SurgeAmount != 10.00 {
		t.Errorf("expected surge amount of total-base=10.00, got %v", receipt.SurgeAmount)
	}
	if receipt.PaymentStatus != domain.PaymentStatusCompleted {
		t.Errorf("expected payment status COMPLETED, got %s", receipt.PaymentStatus)
	}
	if receipt.Tier != domain.RideTierPremium {
		t.Errorf("expected tier PREMIUM from the ride, got %s", receipt.Tier)
	}
}

func TestReceiptService_Get_NoPaymentYetDefaultsToPending(t *testing.T) {
	trip := &domain.Trip{ID: "trip-1", RideID: "ride-1", Status: domain.TripStatusStarted}
	ride := &domain.Ride{ID: "ride-1", RiderID: "rider-1"}

	svc := NewReceiptService(
		&mockTripRepo{trips: map[string]*domain.Trip{"trip-1": trip}, byRide: map[string]*domain.Trip{"ride-1": trip}},
		&mockRideLookupRepo{rides: map[string]*domain.Ride{"ride-1": ride}},
		&mockPaymentRepo{byID: map[string]*domain.Payment{}, byTrip: map[string]*domain.Payment{}},
		NewNotificationService(),
		nil,
	)

	receipt, err := svc.Get(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.PaymentStatus != domain.PaymentStatusPending {
		t.Errorf("expected PENDING when no payment exists yet, got %s", receipt.PaymentStatus)
	}
}

func TestReceiptService_Get_RejectsEmptyTripID(t *testing.T) {
	svc := NewReceiptService(nil, nil, nil, NewNotificationService(), nil)
	if _, err := svc.Get(context.Background(), ""); err != ErrInvalidTripID {
		t.Errorf("expected ErrInvalidTripID, got %v", err)
	}
}
