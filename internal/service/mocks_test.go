package service

import (
	"context"
	"sync"
	"time"

	"ride/internal/domain"
	"ride/internal/geo"
	"ride/internal/repository"
)

// mockRideRepo is an in-memory repository.RideRepository for service tests
// that don't need a real database transaction.
type mockRideRepo struct {
	mu    sync.Mutex
	rides map[string]*domain.Ride

	createErr error
	getErr    error
}

func newMockRideRepo() *mockRideRepo {
	return &mockRideRepo{rides: make(map[string]*domain.Ride)}
}

func (m *mockRideRepo) Create(ctx context.Context, ride *domain.Ride) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ride
	m.rides[ride.ID] = &cp
	return nil
}

func (m *mockRideRepo) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRideRepo) ListMatching(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Ride
	for _, r := range m.rides {
		if r.Status == domain.RideStatusMatching && r.CreatedAt.After(cutoff) {
			cp := *r
			out = append(out, &cp)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *mockRideRepo) Update(ctx context.Context, ride *domain.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[ride.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *ride
	m.rides[ride.ID] = &cp
	return nil
}

var _ repository.RideRepository = (*mockRideRepo)(nil)

// mockNearbyFinder is a scripted geo.NearbyFinder for Matching/Ride tests.
type mockNearbyFinder struct {
	candidates []geo.Candidate
	err        error
}

func (m *mockNearbyFinder) SearchNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]geo.Candidate, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && limit < len(m.candidates) {
		return m.candidates[:limit], nil
	}
	return m.candidates, nil
}

// mockTripRepo, mockPaymentRepo, mockRideLookupRepo back the Receipt
// Service's read-only join across trip, ride, and payment.
type mockTripRepo struct {
	trips  map[string]*domain.Trip
	byRide map[string]*domain.Trip
}

func (m *mockTripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	m.trips[trip.ID] = trip
	m.byRide[trip.RideID] = trip
	return nil
}

func (m *mockTripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	t, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (m *mockTripRepo) GetByRideID(ctx context.Context, rideID string) (*domain.Trip, error) {
	t, ok := m.byRide[rideID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (m *mockTripRepo) Update(ctx context.Context, trip *domain.Trip) error {
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	m.trips[trip.ID] = trip
	m.byRide[trip.RideID] = trip
	return nil
}

func (m *mockTripRepo) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error) {
	for _, t := range m.trips {
		if t.DriverID != driverID {
			continue
		}
		switch t.Status {
		case domain.TripStatusCreated, domain.TripStatusStarted, domain.TripStatusPaused:
			return t, nil
		}
	}
	return nil, nil
}

var _ repository.TripRepository = (*mockTripRepo)(nil)

type mockPaymentRepo struct {
	byID   map[string]*domain.Payment
	byTrip map[string]*domain.Payment
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	m.byID[payment.ID] = payment
	m.byTrip[payment.TripID] = payment
	return nil
}

func (m *mockPaymentRepo) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (m *mockPaymentRepo) GetByTripID(ctx context.Context, tripID string) (*domain.Payment, error) {
	p, ok := m.byTrip[tripID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (m *mockPaymentRepo) Update(ctx context.Context, payment *domain.Payment) error {
	if _, ok := m.byID[payment.ID]; !ok {
		return repository.ErrNotFound
	}
	m.byID[payment.ID] = payment
	m.byTrip[payment.TripID] = payment
	return nil
}

var _ repository.PaymentRepository = (*mockPaymentRepo)(nil)

// mockRideLookupRepo is a minimal repository.RideRepository used where a
// test only needs GetByID to resolve a ride for a join.
type mockRideLookupRepo struct {
	rides map[string]*domain.Ride
}

func (m *mockRideLookupRepo) Create(ctx context.Context, ride *domain.Ride) error { return nil }

func (m *mockRideLookupRepo) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	r, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r, nil
}

func (m *mockRideLookupRepo) ListMatching(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Ride, error) {
	return nil, nil
}

func (m *mockRideLookupRepo) Update(ctx context.Context, ride *domain.Ride) error { return nil }

var _ repository.RideRepository = (*mockRideLookupRepo)(nil)
