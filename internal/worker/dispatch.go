package worker

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"
	"time"

	"ride/internal/apperr"
	"ride/internal/config"
	"ride/internal/domain"
	"ride/internal/eventbus"
	"ride/internal/repository"
	"ride/internal/repository/postgres"
	"ride/internal/service"
	"ride/internal/statemachine"
	"ride/internal/txrunner"
)

// rideLocker is the per-ride dedup lock the Dispatch Worker takes before
// attempting to match a ride, so two worker instances polling the same
// MATCHING row never race to assign it. Satisfied by redis.CacheStore.
type rideLocker interface {
	AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error)
	ReleaseRideLock(ctx context.Context, rideID string) error
}

const rideLockTTL = 10 * time.Second

// DispatchWorker implements the Dispatch Worker: it polls rides sitting
// in MATCHING, finds nearby candidates via the Matching Service, and drives
// the Assignment Service through them in order until one succeeds or the
// candidate list is exhausted. A ride with no successful assignment within
// the configured match timeout is expired rather than retried forever.
type DispatchWorker struct {
	db          *sql.DB
	rideRepo    repository.RideRepository
	driverRepo  repository.DriverRepository
	matching    *service.MatchingService
	assignment  *service.AssignmentService
	notify      *service.NotificationService
	bus         *eventbus.Bus
	locker      rideLocker
	cfg         config.DispatchConfig
}

// NewDispatchWorker creates a new DispatchWorker. locker may be nil, in
// which case no cross-instance dedup lock is taken — safe for a
// single-instance deployment, but a multi-instance one should supply one.
func NewDispatchWorker(
	db *sql.DB,
	rideRepo repository.RideRepository,
	driverRepo repository.DriverRepository,
	matching *service.MatchingService,
	assignment *service.AssignmentService,
	notify *service.NotificationService,
	bus *eventbus.Bus,
	locker rideLocker,
	cfg config.DispatchConfig,
) *DispatchWorker {
	return &DispatchWorker{
		db:         db,
		rideRepo:   rideRepo,
		driverRepo: driverRepo,
		matching:   matching,
		assignment: assignment,
		notify:     notify,
		bus:        bus,
		locker:     locker,
		cfg:        cfg,
	}
}

// Run polls until ctx is cancelled, processing one batch per tick.
func (w *DispatchWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil {
				log.Printf("dispatch worker: batch processing error: %v", err)
			}
		}
	}
}

// processBatch fetches up to cfg.BatchSize MATCHING rides and works them in
// sub-batches of cfg.SubBatchSize: the rides of one sub-batch are matched
// concurrently, and a sub-batch finishes (every ride in it has returned)
// before the next one starts.
func (w *DispatchWorker) processBatch(ctx context.Context) error {
	cutoff := time.Now().Add(-w.cfg.MaxAge)
	rides, err := w.rideRepo.ListMatching(ctx, cutoff, w.cfg.BatchSize)
	if err != nil {
		return err
	}

	sub := w.cfg.SubBatchSize
	if sub <= 0 {
		sub = len(rides)
	}
	for start := 0; start < len(rides); start += sub {
		end := start + sub
		if end > len(rides) {
			end = len(rides)
		}
		w.processSubBatch(ctx, rides[start:end])
		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}

func (w *DispatchWorker) processSubBatch(ctx context.Context, rides []*domain.Ride) {
	var wg sync.WaitGroup
	for _, r := range rides {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.processRide(ctx, r)
		}()
	}
	wg.Wait()
}

func (w *DispatchWorker) processRide(ctx context.Context, ride *domain.Ride) {
	if w.locker != nil {
		acquired, err := w.locker.AcquireRideLock(ctx, ride.ID, rideLockTTL)
		if err != nil {
			log.Printf("dispatch worker: ride %s lock error: %v", ride.ID, err)
			return
		}
		if !acquired {
			return // another worker instance already has this ride
		}
		defer func() { _ = w.locker.ReleaseRideLock(ctx, ride.ID) }()
	}

	candidates, err := w.matching.FindNearby(ctx, service.FindNearbyRequest{
		Lat: ride.PickupLat,
		Lng: ride.PickupLng,
	})
	if err != nil {
		log.Printf("dispatch worker: ride %s candidate search failed: %v", ride.ID, err)
		return
	}

	if len(candidates) == 0 {
		w.expireIfStale(ctx, ride)
		return
	}

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return
		}

		assigned, err := w.assignment.Assign(ctx, ride.ID, candidate.DriverID)
		if err == nil {
			w.notifyAssigned(ctx, assigned, candidate.DriverID)
			return
		}

		if errors.Is(err, service.ErrRideNotMatchable) {
			// Ride left MATCHING (cancelled, or already assigned) between the
			// poll and this attempt; nothing left to do for it.
			return
		}
		if errors.Is(err, service.ErrDriverUnavailable) || errors.Is(err, service.ErrConcurrentlyAssigned) {
			continue // try the next candidate
		}

		log.Printf("dispatch worker: ride %s assign to driver %s failed: %v", ride.ID, candidate.DriverID, err)
		return
	}

	// Every candidate was unavailable; leave the ride MATCHING for the next
	// poll unless it has aged past the match timeout.
	w.expireIfStale(ctx, ride)
}

func (w *DispatchWorker) notifyAssigned(ctx context.Context, ride *domain.Ride, driverID string) {
	if w.notify == nil {
		return
	}
	driver, err := w.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return
	}
	_ = w.notify.NotifyDriverAssigned(ctx, ride, driver)
}

// expireIfStale transitions a ride from MATCHING to EXPIRED once it has sat
// without a successful assignment longer than cfg.MatchTimeout. Younger
// rides are left alone for the next poll.
func (w *DispatchWorker) expireIfStale(ctx context.Context, ride *domain.Ride) {
	if time.Since(ride.CreatedAt) < w.cfg.MatchTimeout {
		return
	}

	var expired *domain.Ride
	err := txrunner.Run(ctx, w.db, func(tx *sql.Tx) error {
		txRideRepo := postgres.NewRideRepositoryWithTx(tx)

		r, err := txRideRepo.GetByID(ctx, ride.ID)
		if err != nil {
			return err
		}
		if r.Status != domain.RideStatusMatching {
			return nil // already moved on
		}

		fromStatus := r.Status
		if verr := statemachine.Validate(statemachine.EntityRide, string(r.Status), string(domain.RideStatusExpired)); verr != nil {
			return apperr.Wrap(apperr.InvalidTransition, verr.Error(), verr)
		}

		r.Status = domain.RideStatusExpired
		r.UpdatedAt = time.Now()
		if err := txRideRepo.Update(ctx, r); err != nil {
			return err
		}
		if err := service.RecordTransition(ctx, tx, domain.EntityRide, r.ID, string(fromStatus), string(r.Status)); err != nil {
			return err
		}
		expired = r
		return nil
	})
	if err != nil {
		log.Printf("dispatch worker: ride %s expire failed: %v", ride.ID, err)
		return
	}
	if expired == nil {
		return
	}

	if w.bus != nil {
		w.bus.Publish(eventbus.Event{
			Type:    eventbus.RideUpdated,
			Payload: eventbus.RideUpdatedPayload{RideID: expired.ID, Status: string(expired.Status)},
		})
	}
	if w.notify != nil {
		_ = w.notify.NotifyRideExpired(ctx, expired)
	}
}
