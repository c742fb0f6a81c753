package service

import (
	"context"
	"testing"

	"ride/internal/domain"
	"ride/internal/geo"
)

func newTestRideService(rideRepo *mockRideRepo, finder *mockNearbyFinder) *RideService {
	return NewRideService(rideRepo, finder, NewNotificationService(), nil, 5.0, 5)
}

func TestCreateRide_DefaultsTierAndPaymentMethod(t *testing.T) {
	svc := newTestRideService(newMockRideRepo(), &mockNearbyFinder{})

	resp, err := svc.CreateRide(context.Background(), CreateRideRequest{
		RiderID:        "rider-1",
		PickupLat:      12.9,
		PickupLng:      77.6,
		DestinationLat: 13.0,
		DestinationLng: 77.7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Ride.Tier != domain.RideTierEconomy {
		t.Errorf("expected default tier ECONOMY, got %s", resp.Ride.Tier)
	}
	if resp.Ride.PaymentMethod != domain.PaymentMethodCash {
		t.Errorf("expected default payment method CASH, got %s", resp.Ride.PaymentMethod)
	}
	if resp.Ride.Status != domain.RideStatusMatching {
		t.Errorf("expected ride to start in MATCHING, got %s", resp.Ride.Status)
	}
	if resp.Ride.SurgeMultiplier != 1.0 {
		t.Errorf("expected no-surge default of 1.0, got %v", resp.Ride.SurgeMultiplier)
	}
}

func TestCreateRide_SurgeMultiplierIsAcceptedAsInputNotDerived(t *testing.T) {
	svc := newTestRideService(newMockRideRepo(), &mockNearbyFinder{})

	resp, err := svc.CreateRide(context.Background(), CreateRideRequest{
		RiderID:         "rider-1",
		PickupLat:       12.9,
		PickupLng:       77.6,
		DestinationLat:  13.0,
		DestinationLng:  77.7,
		SurgeMultiplier: 1.8,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Ride.SurgeMultiplier != 1.8 {
		t.Errorf("expected the caller-supplied surge multiplier to pass through unchanged, got %v", resp.Ride.SurgeMultiplier)
	}
}

func TestCreateRide_RejectsInvalidPickupLocation(t *testing.T) {
	svc := newTestRideService(newMockRideRepo(), &mockNearbyFinder{})

	_, err := svc.CreateRide(context.Background(), CreateRideRequest{
		RiderID:        "rider-1",
		PickupLat:      200,
		PickupLng:      77.6,
		DestinationLat: 13.0,
		DestinationLng: 77.7,
	})
	if err != ErrInvalidPickupLocation {
		t.Errorf("expected ErrInvalidPickupLocation, got %v", err)
	}
}

func TestCreateRide_RejectsUnknownTier(t *testing.T) {
	svc := newTestRideService(newMockRideRepo(), &mockNearbyFinder{})

	_, err := svc.CreateRide(context.Background(), CreateRideRequest{
		RiderID:        "rider-1",
		PickupLat:      12.9,
		PickupLng:      77.6,
		DestinationLat: 13.0,
		DestinationLng: 77.7,
		Tier:           "HELICOPTER",
	})
	if err != ErrInvalidTier {
		t.Errorf("expected ErrInvalidTier, got %v", err)
	}
}

func TestCreateRide_NearbyCandidateCountIsAdvisoryOnly(t *testing.T) {
	finder := &mockNearbyFinder{candidates: []geo.Candidate{{DriverID: "d1"}, {DriverID: "d2"}}}
	svc := newTestRideService(newMockRideRepo(), finder)

	resp, err := svc.CreateRide(context.Background(), CreateRideRequest{
		RiderID:        "rider-1",
		PickupLat:      12.9,
		PickupLng:      77.6,
		DestinationLat: 13.0,
		DestinationLng: 77.7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.NearbyCandidates != 2 {
		t.Errorf("expected advisory candidate count of 2, got %d", resp.NearbyCandidates)
	}

	stored, err := svc.rideRepo.GetByID(context.Background(), resp.Ride.ID)
	if err != nil {
		t.Fatalf("ride was not persisted: %v", err)
	}
	if stored.Status != domain.RideStatusMatching {
		t.Errorf("a failed or slow nearby search must never block persistence; got status %s", stored.Status)
	}
}

func TestCancelRide_AllowedBeforeTripStarts(t *testing.T) {
	repo := newMockRideRepo()
	svc := newTestRideService(repo, &mockNearbyFinder{})

	created, err := svc.CreateRide(context.Background(), CreateRideRequest{
		RiderID:        "rider-1",
		PickupLat:      12.9,
		PickupLng:      77.6,
		DestinationLat: 13.0,
		DestinationLng: 77.7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, err := svc.CancelRide(context.Background(), CancelRideRequest{
		RideID:      created.Ride.ID,
		CancelledBy: "rider-1",
		Reason:      "changed my mind",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != domain.RideStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}
	if cancelled.CancelReason != "changed my mind" {
		t.Errorf("expected cancel reason to be recorded, got %q", cancelled.CancelReason)
	}
}

func TestCancelRide_RejectsAlreadyTerminalRide(t *testing.T) {
	repo := newMockRideRepo()
	svc := newTestRideService(repo, &mockNearbyFinder{})

	created, err := svc.CreateRide(context.Background(), CreateRideRequest{
		RiderID:        "rider-1",
		PickupLat:      12.9,
		PickupLng:      77.6,
		DestinationLat: 13.0,
		DestinationLng: 77.7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.CancelRide(context.Background(), CancelRideRequest{RideID: created.Ride.ID, CancelledBy: "rider-1"}); err != nil {
		t.Fatalf("first cancel should succeed: %v", err)
	}

	if _, err := svc.CancelRide(context.Background(), CancelRideRequest{RideID: created.Ride.ID, CancelledBy: "rider-1"}); err != ErrRideCannotBeCancelled {
		t.Errorf("expected ErrRideCannotBeCancelled on a second cancel, got %v", err)
	}
}
