package service

import (
	"database/sql"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"ride/internal/apperr"
	"ride/internal/domain"
	"ride/internal/eventbus"
	"ride/internal/geo"
	"ride/internal/repository/postgres"
	"ride/internal/statemachine"
	"ride/internal/txrunner"
)

// driverLockTTL bounds how long a candidate driver is held out of
// consideration by a concurrent Assign call.
const driverLockTTL = 10 * time.Second

// driverLocker is the per-driver mutual-exclusion lock taken around a
// candidate before committing to it, so two Dispatch Worker goroutines
// racing over the same AVAILABLE driver don't both try to assign it.
// Satisfied by redis.LockStore.
type driverLocker interface {
	AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error)
	ReleaseDriverLock(ctx context.Context, driverID string) error
}

// AssignmentService implements the Assignment Service: assign() binds a
// driver to a matched ride, and initialize_trip() opens the Trip aggregate
// once that assignment is durable. They are deliberately two transactions,
// not one: initialize_trip re-reads and re-validates the ride's state under
// its own lock rather than trusting the state assign() observed, so a ride
// cancelled in the gap between the two calls is caught instead of silently
// starting a trip.
// Notification to the rider happens one level up, in the Dispatch Worker,
// which loads the assigned driver itself once Assign has returned the ride.
type AssignmentService struct {
	db       *sql.DB
	geoIndex geo.IndexWriter
	bus      *eventbus.Bus
	locker   driverLocker
}

// NewAssignmentService creates a new AssignmentService. locker may be nil,
// disabling the candidate lock — the transactional Assign below is still
// correct without it, just more prone to wasted candidate attempts under
// contention.
func NewAssignmentService(db *sql.DB, geoIndex geo.IndexWriter, bus *eventbus.Bus, locker driverLocker) *AssignmentService {
	return &AssignmentService{db: db, geoIndex: geoIndex, bus: bus, locker: locker}
}

// Assign binds driverID to rideID: the ride moves MATCHING -> DRIVER_ASSIGNED.
// The driver itself is left AVAILABLE — acceptance is a distinct phase, and
// only InitializeTrip (called once the driver actually accepts) transitions
// it to ON_TRIP. The driver still leaves the matchable pool immediately,
// via the geo index removal below, which is authoritative for matching
// candidacy regardless of the driver's persisted status. A unique-constraint
// violation on assigned_driver_id (another assign() won the race for the
// same driver) surfaces as ErrConcurrentlyAssigned so the Dispatch Worker
// can fall through to the next candidate.
func (s *AssignmentService) Assign(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	if s.locker != nil {
		locked, err := s.locker.AcquireDriverLock(ctx, driverID, driverLockTTL)
		if err != nil {
			return nil, apperr.Wrap(apperr.DependencyFailure, "driver lock acquire failed", err)
		}
		if !locked {
			return nil, ErrDriverUnavailable
		}
		defer func() { _ = s.locker.ReleaseDriverLock(ctx, driverID) }()
	}

	var ride *domain.Ride

	err := txrunner.Run(ctx, s.db, func(tx *sql.Tx) error {
		txRideRepo := postgres.NewRideRepositoryWithTx(tx)
		txDriverRepo := postgres.NewDriverRepositoryWithTx(tx)

		r, err := txRideRepo.GetByID(ctx, rideID)
		if err != nil {
			return err
		}
		fromRideStatus := r.Status
		if verr := statemachine.Validate(statemachine.EntityRide, string(r.Status), string(domain.RideStatusDriverAssigned)); verr != nil {
			return ErrRideNotMatchable
		}

		d, err := txDriverRepo.GetByID(ctx, driverID)
		if err != nil {
			return err
		}
		if d.Status != domain.DriverStatusAvailable {
			return ErrDriverUnavailable
		}

		now := time.Now()
		r.Status = domain.RideStatusDriverAssigned
		r.AssignedDriverID = driverID
		r.AssignedAt = now
		r.UpdatedAt = now

		if err := txRideRepo.Update(ctx, r); err != nil {
			if errors.Is(err, postgres.ErrConcurrentAssignment) {
				return ErrConcurrentlyAssigned
			}
			return err
		}
		if err := RecordTransition(ctx, tx, domain.EntityRide, r.ID, string(fromRideStatus), string(r.Status)); err != nil {
			return err
		}

		ride = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The driver leaves the matchable pool the instant it is assigned, even
	// though its persisted status is still AVAILABLE pending acceptance;
	// removal happens after commit since Redis sits outside the Postgres
	// transaction and a rolled-back assign must never have removed it.
	_ = s.geoIndex.Remove(ctx, driverID)

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{
			Type:    eventbus.DriverAssigned,
			Payload: eventbus.DriverAssignedPayload{RideID: rideID, DriverID: driverID},
		})
		s.bus.Publish(eventbus.Event{
			Type:    eventbus.RideUpdated,
			Payload: eventbus.RideUpdatedPayload{RideID: rideID, Status: string(ride.Status)},
		})
	}

	return ride, nil
}

// InitializeTrip is the driver's acceptance of an assigned ride: it
// validates driver.status == AVAILABLE and transitions it to ON_TRIP before
// opening the Trip aggregate, all under a fresh lock rather than trusting
// the caller's view from Assign — the ride may have been cancelled, or the
// driver forced offline, in the interval between the two calls.
func (s *AssignmentService) InitializeTrip(ctx context.Context, rideID, driverID string) (*domain.Trip, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	var trip *domain.Trip

	err := txrunner.Run(ctx, s.db, func(tx *sql.Tx) error {
		txRideRepo := postgres.NewRideRepositoryWithTx(tx)
		txDriverRepo := postgres.NewDriverRepositoryWithTx(tx)
		txTripRepo := postgres.NewTripRepositoryWithTx(tx)

		r, err := txRideRepo.GetByID(ctx, rideID)
		if err != nil {
			return err
		}
		if r.Status != domain.RideStatusDriverAssigned || r.AssignedDriverID != driverID {
			return ErrRideNotMatchable
		}

		if existing, err := txTripRepo.GetByRideID(ctx, rideID); err == nil && existing != nil {
			trip = existing
			return nil
		}

		d, err := txDriverRepo.GetByID(ctx, driverID)
		if err != nil {
			return err
		}
		if d.Status != domain.DriverStatusAvailable {
			return ErrDriverNotAvailable
		}
		if verr := statemachine.Validate(statemachine.EntityDriver, string(d.Status), string(domain.DriverStatusOnTrip)); verr != nil {
			return apperr.Wrap(apperr.InvalidTransition, verr.Error(), verr)
		}

		if err := txDriverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusOnTrip); err != nil {
			return err
		}
		if err := RecordTransition(ctx, tx, domain.EntityDriver, driverID, string(d.Status), string(domain.DriverStatusOnTrip)); err != nil {
			return err
		}

		now := time.Now()
		t := &domain.Trip{
			ID:        uuid.New().String(),
			RideID:    rideID,
			DriverID:  driverID,
			Status:    domain.TripStatusCreated,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := txTripRepo.Create(ctx, t); err != nil {
			return err
		}
		trip = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{
			Type:    eventbus.DriverStatusChanged,
			Payload: eventbus.DriverStatusChangedPayload{DriverID: driverID, From: string(domain.DriverStatusAvailable), To: string(domain.DriverStatusOnTrip)},
		})
		s.bus.Publish(eventbus.Event{
			Type:    eventbus.TripAccepted,
			Payload: eventbus.TripAcceptedPayload{TripID: trip.ID, RideID: rideID, DriverID: driverID},
		})
	}

	return trip, nil
}
