package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"ride/internal/apperr"
	"ride/internal/domain"
	"ride/internal/eventbus"
	"ride/internal/geo"
	internalRedis "ride/internal/redis"
	"ride/internal/repository"
	"ride/internal/repository/postgres"
	"ride/internal/statemachine"
	"ride/internal/txrunner"
)

// driverCache is the subset of internalRedis.CacheStore the Driver Registry
// write path touches. A nil driverCache disables caching entirely rather
// than failing writes — reads just fall back to Postgres.
type driverCache interface {
	SetDriver(ctx context.Context, driver *internalRedis.CachedDriver) error
	InvalidateDriver(ctx context.Context, driverID string) error
}

// DriverService implements the Driver Registry: driver onboarding,
// status transitions, and the two-speed location pipeline — a synchronous
// geo index write on the request path, with the durable position write
// coalesced onto a background writer.
type DriverService struct {
	db         *sql.DB
	driverRepo repository.DriverRepository
	geoIndex   geo.IndexWriter
	geoWriter  *geo.Writer
	bus        *eventbus.Bus
	cache      driverCache
}

// NewDriverService creates a new DriverService. cache may be nil.
func NewDriverService(
	db *sql.DB,
	driverRepo repository.DriverRepository,
	geoIndex geo.IndexWriter,
	geoWriter *geo.Writer,
	bus *eventbus.Bus,
	cache driverCache,
) *DriverService {
	return &DriverService{
		db:         db,
		driverRepo: driverRepo,
		geoIndex:   geoIndex,
		geoWriter:  geoWriter,
		bus:        bus,
		cache:      cache,
	}
}

// CreateDriverRequest contains the parameters for onboarding a driver.
type CreateDriverRequest struct {
	Name  string
	Phone string
	Lat   float64
	Lon   float64
}

// Create onboards a new driver directly into AVAILABLE status, upserting it
// into the geo index so it is immediately matchable — there is no separate
// "went online" step for a freshly registered driver.
func (s *DriverService) Create(ctx context.Context, req CreateDriverRequest) (*domain.Driver, error) {
	if req.Name == "" {
		return nil, ErrInvalidDriverName
	}
	if req.Phone == "" {
		return nil, ErrInvalidDriverPhone
	}
	if !isValidLatitude(req.Lat) || !isValidLongitude(req.Lon) {
		return nil, ErrInvalidLocation
	}

	if existing, err := s.driverRepo.GetByPhone(ctx, req.Phone); err == nil && existing != nil {
		return nil, apperr.New(apperr.Conflict, "driver phone already registered")
	} else if err != nil && err != repository.ErrNotFound {
		return nil, err
	}

	now := time.Now()
	driver := &domain.Driver{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Phone:     req.Phone,
		Status:    domain.DriverStatusAvailable,
		Lat:       req.Lat,
		Lon:       req.Lon,
		HasLoc:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.driverRepo.Create(ctx, driver); err != nil {
		return nil, err
	}

	if err := s.geoIndex.Upsert(ctx, driver.ID, driver.Lat, driver.Lon); err != nil {
		return nil, apperr.Wrap(apperr.DependencyFailure, "geo index upsert failed", err)
	}

	if s.cache != nil {
		_ = s.cache.SetDriver(ctx, &internalRedis.CachedDriver{
			ID:     driver.ID,
			Name:   driver.Name,
			Phone:  driver.Phone,
			Status: string(driver.Status),
		})
	}

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{
			Type:    eventbus.DriverCreated,
			Payload: eventbus.DriverCreatedPayload{DriverID: driver.ID},
		})
	}

	return driver, nil
}

// Get retrieves a driver by ID.
func (s *DriverService) Get(ctx context.Context, driverID string) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.driverRepo.GetByID(ctx, driverID)
}

// List retrieves drivers, optionally filtered by status.
func (s *DriverService) List(ctx context.Context, status domain.DriverStatus, limit int) ([]*domain.Driver, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.driverRepo.List(ctx, status, limit)
}

// UpdateLocationRequest contains the parameters for a location report.
type UpdateLocationRequest struct {
	DriverID string
	Lat      float64
	Lng      float64
}

// UpdateLocation is the fast path a driver's app calls on every GPS tick.
// The geo index is only ever touched here while the driver is AVAILABLE, so
// matching never sees a stale position: an OFFLINE or ON_TRIP driver's
// position is still durably recorded, via the coalesced background writer,
// but never made visible to matching. The index write itself stays
// synchronous and on the request path — it is one Redis round trip, and
// matching correctness depends on it being current.
func (s *DriverService) UpdateLocation(ctx context.Context, req UpdateLocationRequest) error {
	if req.DriverID == "" {
		return ErrInvalidDriverID
	}
	if !isValidLatitude(req.Lat) || !isValidLongitude(req.Lng) {
		return ErrInvalidLocation
	}

	driver, err := s.driverRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return err
	}

	if driver.Status == domain.DriverStatusAvailable {
		if err := s.geoIndex.Upsert(ctx, req.DriverID, req.Lat, req.Lng); err != nil {
			return apperr.Wrap(apperr.DependencyFailure, "geo index upsert failed", err)
		}
	}

	s.geoWriter.Enqueue(geo.LocationUpdate{DriverID: req.DriverID, Lat: req.Lat, Lon: req.Lng})

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{
			Type:    eventbus.DriverLocationUpdated,
			Payload: eventbus.DriverLocationUpdatedPayload{DriverID: req.DriverID, Lat: req.Lat, Lon: req.Lng},
		})
	}

	return nil
}

// UpdateStatus transitions a driver's status, validated against the driver
// state table. The geo index is kept in lockstep with the committed status,
// but Redis is not part of the Postgres transaction, so the two mutations
// are deliberately ordered to fail toward unavailability: a driver leaving
// AVAILABLE is removed from the index inside the transaction, before the
// status change it depends on is even committed, while a driver entering
// AVAILABLE is only added after the commit succeeds. A crash or rollback
// between these steps can leave a driver briefly absent from the index, but
// never briefly matchable when it shouldn't be.
func (s *DriverService) UpdateStatus(ctx context.Context, driverID string, to domain.DriverStatus) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	var driver *domain.Driver
	var from domain.DriverStatus

	err := txrunner.Run(ctx, s.db, func(tx *sql.Tx) error {
		txDriverRepo := postgres.NewDriverRepositoryWithTx(tx)

		d, err := txDriverRepo.GetByID(ctx, driverID)
		if err != nil {
			return err
		}
		from = d.Status

		if verr := statemachine.Validate(statemachine.EntityDriver, string(from), string(to)); verr != nil {
			return apperr.Wrap(apperr.InvalidTransition, verr.Error(), verr)
		}

		if from == domain.DriverStatusAvailable && to != domain.DriverStatusAvailable {
			if err := s.geoIndex.Remove(ctx, driverID); err != nil {
				return apperr.Wrap(apperr.DependencyFailure, "geo index remove failed", err)
			}
		}

		if err := txDriverRepo.UpdateStatus(ctx, driverID, to); err != nil {
			return err
		}
		if err := RecordTransition(ctx, tx, domain.EntityDriver, driverID, string(from), string(to)); err != nil {
			return err
		}

		d.Status = to
		d.UpdatedAt = time.Now()
		driver = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateDriver(ctx, driverID)
	}

	if to == domain.DriverStatusAvailable && driver.HasLoc {
		fresh, err := s.geoIndex.IsFresh(ctx, driverID)
		if err != nil {
			return driver, apperr.Wrap(apperr.DependencyFailure, "geo freshness check failed", err)
		}
		// A stale last-known position (older than the freshness window) is
		// not re-added: the driver must report a current location before
		// becoming matchable again, rather than resurfacing at a location
		// it may no longer be at.
		if fresh {
			if err := s.geoIndex.Upsert(ctx, driverID, driver.Lat, driver.Lon); err != nil {
				return driver, apperr.Wrap(apperr.DependencyFailure, "geo index upsert failed", err)
			}
		}
	}

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{
			Type:    eventbus.DriverStatusChanged,
			Payload: eventbus.DriverStatusChangedPayload{DriverID: driverID, From: string(from), To: string(to)},
		})
	}

	return driver, nil
}
