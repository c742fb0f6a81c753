package service

import (
	"context"
	"database/sql"
	"time"

	"ride/internal/apperr"
	"ride/internal/domain"
	"ride/internal/eventbus"
	"ride/internal/repository"
	"ride/internal/repository/postgres"
	"ride/internal/statemachine"
	"ride/internal/txrunner"
)

// TripService implements the Trip Service: start/pause/resume/cancel/
// end, each a single transaction that locks the trip (joined against its
// ride for driver/rider context), validates the transition, writes, and
// only emits its event and notification once the commit has succeeded.
type TripService struct {
	db                  *sql.DB
	tripRepo            repository.TripRepository
	rideRepo            repository.RideRepository
	driverRepo          repository.DriverRepository
	paymentService      *PaymentService
	notificationService *NotificationService
	bus                 *eventbus.Bus
}

// NewTripService creates a new TripService.
func NewTripService(
	db *sql.DB,
	tripRepo repository.TripRepository,
	rideRepo repository.RideRepository,
	driverRepo repository.DriverRepository,
	paymentService *PaymentService,
	notificationService *NotificationService,
	bus *eventbus.Bus,
) *TripService {
	return &TripService{
		db:                  db,
		tripRepo:            tripRepo,
		rideRepo:            rideRepo,
		driverRepo:          driverRepo,
		paymentService:      paymentService,
		notificationService: notificationService,
		bus:                 bus,
	}
}

// Start transitions a trip CREATED -> STARTED.
func (s *TripService) Start(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	var trip *domain.Trip
	var riderID string

	err := txrunner.Run(ctx, s.db, func(tx *sql.Tx) error {
		txTripRepo := postgres.NewTripRepositoryWithTx(tx)
		txRideRepo := postgres.NewRideRepositoryWithTx(tx)

		t, err := txTripRepo.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		fromStatus := t.Status
		if verr := statemachine.Validate(statemachine.EntityTrip, string(t.Status), string(domain.TripStatusStarted)); verr != nil {
			return apperr.Wrap(apperr.InvalidTransition, verr.Error(), verr)
		}

		r, err := txRideRepo.GetByID(ctx, t.RideID)
		if err != nil {
			return err
		}
		riderID = r.RiderID

		t.Status = domain.TripStatusStarted
		t.StartedAt = time.Now()
		t.UpdatedAt = t.StartedAt
		if err := txTripRepo.Update(ctx, t); err != nil {
			return err
		}
		if err := RecordTransition(ctx, tx, domain.EntityTrip, t.ID, string(fromStatus), string(t.Status)); err != nil {
			return err
		}
		trip = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TripStarted, Payload: eventbus.TripStartedPayload{TripID: trip.ID}})
	}
	if s.notificationService != nil {
		_ = s.notificationService.NotifyTripStarted(ctx, trip, riderID)
	}

	return trip, nil
}

// Pause transitions a trip STARTED -> PAUSED, recording when the pause began.
func (s *TripService) Pause(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	var trip *domain.Trip
	var riderID string

	err := txrunner.Run(ctx, s.db, func(tx *sql.Tx) error {
		txTripRepo := postgres.NewTripRepositoryWithTx(tx)
		txRideRepo := postgres.NewRideRepositoryWithTx(tx)

		t, err := txTripRepo.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		fromStatus := t.Status
		if verr := statemachine.Validate(statemachine.EntityTrip, string(t.Status), string(domain.TripStatusPaused)); verr != nil {
			return apperr.Wrap(apperr.InvalidTransition, verr.Error(), verr)
		}

		r, err := txRideRepo.GetByID(ctx, t.RideID)
		if err != nil {
			return err
		}
		riderID = r.RiderID

		t.Status = domain.TripStatusPaused
		t.PausedAt = time.Now()
		t.UpdatedAt = t.PausedAt
		if err := txTripRepo.Update(ctx, t); err != nil {
			return err
		}
		if err := RecordTransition(ctx, tx, domain.EntityTrip, t.ID, string(fromStatus), string(t.Status)); err != nil {
			return err
		}
		trip = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyTripPaused(ctx, trip, riderID)
	}

	return trip, nil
}

// Resume transitions a trip PAUSED -> STARTED, folding the elapsed pause
// into TotalPaused so it is excluded from the eventual duration.
func (s *TripService) Resume(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	var trip *domain.Trip
	var riderID string

	err := txrunner.Run(ctx, s.db, func(tx *sql.Tx) error {
		txTripRepo := postgres.NewTripRepositoryWithTx(tx)
		txRideRepo := postgres.NewRideRepositoryWithTx(tx)

		t, err := txTripRepo.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		fromStatus := t.Status
		if verr := statemachine.Validate(statemachine.EntityTrip, string(t.Status), string(domain.TripStatusStarted)); verr != nil {
			return apperr.Wrap(apperr.InvalidTransition, verr.Error(), verr)
		}

		r, err := txRideRepo.GetByID(ctx, t.RideID)
		if err != nil {
			return err
		}
		riderID = r.RiderID

		if !t.PausedAt.IsZero() {
			t.TotalPaused += time.Since(t.PausedAt)
		}
		t.Status = domain.TripStatusStarted
		t.PausedAt = time.Time{}
		t.UpdatedAt = time.Now()
		if err := txTripRepo.Update(ctx, t); err != nil {
			return err
		}
		if err := RecordTransition(ctx, tx, domain.EntityTrip, t.ID, string(fromStatus), string(t.Status)); err != nil {
			return err
		}
		trip = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyTripResumed(ctx, trip, riderID)
	}

	return trip, nil
}

// Cancel transitions a trip to CANCELLED and frees its driver back to
// AVAILABLE, without going through the fare/payment pipeline.
func (s *TripService) Cancel(ctx context.Context, tripID, cancelledBy, reason string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	var trip *domain.Trip
	var ride *domain.Ride

	err := txrunner.Run(ctx, s.db, func(tx *sql.Tx) error {
		txTripRepo := postgres.NewTripRepositoryWithTx(tx)
		txRideRepo := postgres.NewRideRepositoryWithTx(tx)
		txDriverRepo := postgres.NewDriverRepositoryWithTx(tx)

		t, err := txTripRepo.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		fromTripStatus := t.Status
		if verr := statemachine.Validate(statemachine.EntityTrip, string(t.Status), string(domain.TripStatusCancelled)); verr != nil {
			return apperr.Wrap(apperr.InvalidTransition, verr.Error(), verr)
		}

		r, err := txRideRepo.GetByID(ctx, t.RideID)
		if err != nil {
			return err
		}
		fromRideStatus := r.Status

		t.Status = domain.TripStatusCancelled
		t.UpdatedAt = time.Now()
		if err := txTripRepo.Update(ctx, t); err != nil {
			return err
		}
		if err := RecordTransition(ctx, tx, domain.EntityTrip, t.ID, string(fromTripStatus), string(t.Status)); err != nil {
			return err
		}

		r.Status = domain.RideStatusCancelled
		r.CancelledAt = t.UpdatedAt
		r.CancelReason = reason
		r.UpdatedAt = t.UpdatedAt
		if err := txRideRepo.Update(ctx, r); err != nil {
			return err
		}
		if err := RecordTransition(ctx, tx, domain.EntityRide, r.ID, string(fromRideStatus), string(r.Status)); err != nil {
			return err
		}

		if err := txDriverRepo.UpdateStatus(ctx, t.DriverID, domain.DriverStatusAvailable); err != nil {
			return err
		}

		trip, ride = t, r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.RideUpdated, Payload: eventbus.RideUpdatedPayload{RideID: ride.ID, Status: string(ride.Status)}})
	}
	if s.notificationService != nil {
		_ = s.notificationService.NotifyRideCancelled(ctx, ride, cancelledBy, reason)
	}

	return trip, nil
}

// EndTripRequest contains the parameters for ending a trip. DistanceKm and
// DurationSec are reported by the driver app at trip close; DurationSec is
// optional (<= 0 means omitted) and falls back to the elapsed time between
// the trip's own Start/End timestamps, minus any paused time, when absent.
type EndTripRequest struct {
	TripID      string
	DistanceKm  float64
	DurationSec int64
}

const (
	maxTripDistanceKm    = 1000
	maxTripDurationSec   = 86400
)

// EndTripResponse contains the result of ending a trip.
type EndTripResponse struct {
	Trip    *domain.Trip
	Payment *domain.Payment
}

// End transitions a trip to ENDED, computes its fare, frees the driver, and
// kicks off payment creation once the trip transaction has committed.
func (s *TripService) End(ctx context.Context, req EndTripRequest) (*EndTripResponse, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.DistanceKm < 0 || req.DistanceKm > maxTripDistanceKm {
		return nil, ErrInvalidTripMetrics
	}
	if req.DurationSec > maxTripDurationSec {
		return nil, ErrInvalidTripMetrics
	}

	var trip *domain.Trip
	var ride *domain.Ride

	err := txrunner.Run(ctx, s.db, func(tx *sql.Tx) error {
		txTripRepo := postgres.NewTripRepositoryWithTx(tx)
		txRideRepo := postgres.NewRideRepositoryWithTx(tx)
		txDriverRepo := postgres.NewDriverRepositoryWithTx(tx)

		t, err := txTripRepo.GetByID(ctx, req.TripID)
		if err != nil {
			return err
		}
		fromTripStatus := t.Status
		if verr := statemachine.Validate(statemachine.EntityTrip, string(t.Status), string(domain.TripStatusEnded)); verr != nil {
			return apperr.Wrap(apperr.InvalidTransition, verr.Error(), verr)
		}

		r, err := txRideRepo.GetByID(ctx, t.RideID)
		if err != nil {
			return err
		}
		fromRideStatus := r.Status

		endedAt := time.Now()
		totalPaused := t.TotalPaused
		if t.Status == domain.TripStatusPaused && !t.PausedAt.IsZero() {
			totalPaused += time.Since(t.PausedAt)
		}

		durationSec := req.DurationSec
		if durationSec <= 0 {
			derived := endedAt.Sub(t.StartedAt) - totalPaused
			if derived < 0 {
				derived = 0
			}
			durationSec = int64(derived.Seconds())
		}

		baseFare, totalFare := calculateFare(string(r.Tier), req.DistanceKm, durationSec, r.SurgeMultiplier)

		t.Status = domain.TripStatusEnded
		t.EndedAt = endedAt
		t.TotalPaused = totalPaused
		t.PausedAt = time.Time{}
		t.DistanceKm = req.DistanceKm
		t.DurationSec = durationSec
		t.BaseFare = baseFare
		t.TotalFare = totalFare
		t.UpdatedAt = endedAt
		if err := txTripRepo.Update(ctx, t); err != nil {
			return err
		}
		if err := RecordTransition(ctx, tx, domain.EntityTrip, t.ID, string(fromTripStatus), string(t.Status)); err != nil {
			return err
		}

		r.Status = domain.RideStatusCompleted
		r.UpdatedAt = endedAt
		if err := txRideRepo.Update(ctx, r); err != nil {
			return err
		}
		if err := RecordTransition(ctx, tx, domain.EntityRide, r.ID, string(fromRideStatus), string(r.Status)); err != nil {
			return err
		}

		if err := txDriverRepo.UpdateStatus(ctx, t.DriverID, domain.DriverStatusAvailable); err != nil {
			return err
		}

		trip, ride = t, r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TripEnded, Payload: eventbus.TripEndedPayload{TripID: trip.ID, TotalFare: trip.TotalFare}})
	}
	if s.notificationService != nil {
		_ = s.notificationService.NotifyTripEnded(ctx, trip, ride.RiderID, trip.TotalFare)
	}

	var payment *domain.Payment
	if s.paymentService != nil {
		payment, err = s.paymentService.CreatePayment(ctx, CreatePaymentRequest{
			TripID: trip.ID,
			Amount: trip.TotalFare,
		})
		if err != nil {
			payment = nil
		}
	}

	return &EndTripResponse{Trip: trip, Payment: payment}, nil
}

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, id string) (*domain.Trip, error) {
	if id == "" {
		return nil, ErrInvalidTripID
	}
	return s.tripRepo.GetByID(ctx, id)
}

