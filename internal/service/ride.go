package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ride/internal/domain"
	"ride/internal/eventbus"
	"ride/internal/geo"
	"ride/internal/repository"
)

// RideService implements Ride Intake: it validates and persists a ride
// request in MATCHING status and returns immediately. It does not assign a
// driver — that is the Dispatch Worker's job, running independently
// of the request path, so a slow or unavailable match never blocks the
// rider's HTTP response.
type RideService struct {
	rideRepo            repository.RideRepository
	nearby              geo.NearbyFinder
	notificationService *NotificationService
	bus                 *eventbus.Bus
	matchRadiusKm       float64
	matchLimit          int
}

// NewRideService creates a new RideService.
func NewRideService(
	rideRepo repository.RideRepository,
	nearby geo.NearbyFinder,
	notificationService *NotificationService,
	bus *eventbus.Bus,
	matchRadiusKm float64,
	matchLimit int,
) *RideService {
	if matchRadiusKm <= 0 {
		matchRadiusKm = 5.0
	}
	if matchLimit <= 0 {
		matchLimit = 5
	}
	return &RideService{
		rideRepo:            rideRepo,
		nearby:              nearby,
		notificationService: notificationService,
		bus:                 bus,
		matchRadiusKm:       matchRadiusKm,
		matchLimit:          matchLimit,
	}
}

// CreateRideRequest contains the parameters for creating a ride.
type CreateRideRequest struct {
	RiderID        string
	PickupLat      float64
	PickupLng      float64
	DestinationLat float64
	DestinationLng float64
	Tier           domain.RideTier      // Optional: defaults to ECONOMY
	PaymentMethod  domain.PaymentMethod // Optional: defaults to CASH

	// SurgeMultiplier is supplied by the caller (e.g. a pricing component
	// upstream of dispatch): it is an input here, not something derived.
	// Omitted or < 1.0 defaults to 1.0 (no surge).
	SurgeMultiplier float64
}

// CreateRideResponse contains the result of creating a ride, including an
// advisory nearby-candidate count — informational only, since the Dispatch
// Worker performs the real assignment out of band.
type CreateRideResponse struct {
	Ride             *domain.Ride
	NearbyCandidates int
}

// CreateRide validates a ride request and persists it in MATCHING status.
func (s *RideService) CreateRide(ctx context.Context, req CreateRideRequest) (*CreateRideResponse, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	tier := req.Tier
	if tier == "" {
		tier = domain.RideTierEconomy
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = domain.PaymentMethodCash
	}

	surgeMultiplier := req.SurgeMultiplier
	if surgeMultiplier < 1.0 {
		surgeMultiplier = 1.0
	}

	now := time.Now()
	ride := &domain.Ride{
		ID:              uuid.New().String(),
		RiderID:         req.RiderID,
		PickupLat:       req.PickupLat,
		PickupLng:       req.PickupLng,
		DestinationLat:  req.DestinationLat,
		DestinationLng:  req.DestinationLng,
		Tier:            tier,
		PaymentMethod:   paymentMethod,
		Status:          domain.RideStatusMatching,
		SurgeMultiplier: surgeMultiplier,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{
			Type:    eventbus.RideCreated,
			Payload: eventbus.RideCreatedPayload{RideID: ride.ID, RiderID: ride.RiderID},
		})
	}

	candidates, err := s.nearby.SearchNearby(ctx, req.PickupLat, req.PickupLng, s.matchRadiusKm, s.matchLimit)
	nearbyCount := 0
	if err == nil {
		nearbyCount = len(candidates)
	}

	return &CreateRideResponse{Ride: ride, NearbyCandidates: nearbyCount}, nil
}

// GetRideStatus retrieves the current status of a ride.
func (s *RideService) GetRideStatus(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	return s.rideRepo.GetByID(ctx, rideID)
}

func (s *RideService) validateCreateRequest(req CreateRideRequest) error {
	if req.RiderID == "" {
		return ErrInvalidRiderID
	}
	if !isValidLatitude(req.PickupLat) || !isValidLongitude(req.PickupLng) {
		return ErrInvalidPickupLocation
	}
	if !isValidLatitude(req.DestinationLat) || !isValidLongitude(req.DestinationLng) {
		return ErrInvalidDestinationLocation
	}
	switch req.Tier {
	case "", domain.RideTierEconomy, domain.RideTierPremium, domain.RideTierLuxury:
	default:
		return ErrInvalidTier
	}
	switch req.PaymentMethod {
	case "", domain.PaymentMethodCash, domain.PaymentMethodCard, domain.PaymentMethodWallet, domain.PaymentMethodUPI:
	default:
		return ErrInvalidPaymentMethod
	}
	return nil
}

func isValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}

// CancelRideRequest contains the parameters for cancelling a ride.
type CancelRideRequest struct {
	RideID      string
	CancelledBy string // rider or driver ID
	Reason      string
}

// CancelRide cancels a ride in REQUESTED, MATCHING or DRIVER_ASSIGNED
// status. It checks only the ride's own status: it does not look for a
// trip on the ride, and it does not change the assigned driver's status or
// geo index entry.
func (s *RideService) CancelRide(ctx context.Context, req CancelRideRequest) (*domain.Ride, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}

	if ride.Status != domain.RideStatusRequested && ride.Status != domain.RideStatusMatching && ride.Status != domain.RideStatusDriverAssigned {
		return nil, ErrRideCannotBeCancelled
	}

	ride.Status = domain.RideStatusCancelled
	ride.CancelledAt = time.Now()
	ride.CancelReason = req.Reason
	ride.UpdatedAt = ride.CancelledAt

	if err := s.rideRepo.Update(ctx, ride); err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{
			Type:    eventbus.RideUpdated,
			Payload: eventbus.RideUpdatedPayload{RideID: ride.ID, Status: string(ride.Status)},
		})
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyRideCancelled(ctx, ride, req.CancelledBy, req.Reason)
	}

	return ride, nil
}

// ValidatePaymentMethod validates a payment method string, defaulting to CASH.
func ValidatePaymentMethod(method string) (domain.PaymentMethod, error) {
	switch domain.PaymentMethod(method) {
	case domain.PaymentMethodCash, domain.PaymentMethodCard,
		domain.PaymentMethodWallet, domain.PaymentMethodUPI:
		return domain.PaymentMethod(method), nil
	case "":
		return domain.PaymentMethodCash, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}
