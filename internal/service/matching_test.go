package service

import (
	"context"
	"errors"
	"testing"

	"ride/internal/geo"
)

func TestFindNearby_UsesConfiguredDefaultsWhenRequestOmitsThem(t *testing.T) {
	finder := &mockNearbyFinder{candidates: []geo.Candidate{
		{DriverID: "d1", DistanceKm: 0.5},
		{DriverID: "d2", DistanceKm: 1.2},
	}}
	svc := NewMatchingService(finder, 5.0, 3)

	candidates, err := svc.FindNearby(context.Background(), FindNearbyRequest{Lat: 12.9, Lng: 77.6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].DriverID != "d1" {
		t.Errorf("expected nearest candidate first, got %s", candidates[0].DriverID)
	}
}

func TestFindNearby_RequestOverridesLimit(t *testing.T) {
	finder := &mockNearbyFinder{candidates: []geo.Candidate{
		{DriverID: "d1"}, {DriverID: "d2"}, {DriverID: "d3"},
	}}
	svc := NewMatchingService(finder, 5.0, 5)

	candidates, err := svc.FindNearby(context.Background(), FindNearbyRequest{Lat: 1, Lng: 1, Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected limit to cap results at 2, got %d", len(candidates))
	}
}

func TestFindNearby_PropagatesFinderError(t *testing.T) {
	wantErr := errors.New("redis unavailable")
	finder := &mockNearbyFinder{err: wantErr}
	svc := NewMatchingService(finder, 5.0, 5)

	_, err := svc.FindNearby(context.Background(), FindNearbyRequest{Lat: 1, Lng: 1})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected finder error to propagate, got %v", err)
	}
}

func TestNewMatchingService_InvalidTuningFallsBackToDefaults(t *testing.T) {
	svc := NewMatchingService(&mockNearbyFinder{}, -1, 0)
	if svc.radiusKm != defaultSearchRadiusKm {
		t.Errorf("expected default radius, got %v", svc.radiusKm)
	}
	if svc.limit != defaultSearchLimit {
		t.Errorf("expected default limit, got %v", svc.limit)
	}
}
