package service

import "ride/internal/apperr"

// Sentinel errors returned by the service layer, each tagged with its
// apperr.Kind so the HTTP layer can map it to a status code without
// inspecting message text.
var (
	// Ride Intake
	ErrInvalidRiderID             = apperr.New(apperr.ValidationFailed, "invalid rider id")
	ErrInvalidPickupLocation      = apperr.New(apperr.ValidationFailed, "invalid pickup location")
	ErrInvalidDestinationLocation = apperr.New(apperr.ValidationFailed, "invalid destination location")
	ErrInvalidTier                = apperr.New(apperr.ValidationFailed, "invalid ride tier")
	ErrInvalidPaymentMethod       = apperr.New(apperr.ValidationFailed, "invalid payment method")
	ErrInvalidRideID              = apperr.New(apperr.ValidationFailed, "invalid ride id")

	// Driver Registry
	ErrInvalidDriverID    = apperr.New(apperr.ValidationFailed, "invalid driver id")
	ErrInvalidDriverName  = apperr.New(apperr.ValidationFailed, "invalid driver name")
	ErrInvalidDriverPhone = apperr.New(apperr.ValidationFailed, "invalid driver phone")
	ErrInvalidLocation    = apperr.New(apperr.ValidationFailed, "invalid location")
	ErrDriverNotFound     = apperr.New(apperr.NotFound, "driver not found")

	// Matching
	ErrNoDriverAvailable = apperr.New(apperr.NotFound, "no driver available")

	// Assignment
	ErrRideNotMatchable    = apperr.New(apperr.InvalidTransition, "ride is not in a matchable state")
	ErrDriverUnavailable   = apperr.New(apperr.Conflict, "driver is not available")
	ErrConcurrentlyAssigned = apperr.New(apperr.Conflict, "ride was concurrently assigned")
	ErrDriverNotAvailable  = apperr.New(apperr.Conflict, "driver not available for trip initialization")

	// Trip Service
	ErrInvalidTripID           = apperr.New(apperr.ValidationFailed, "invalid trip id")
	ErrDriverHasActiveTrip     = apperr.New(apperr.Conflict, "driver already has an active trip")
	ErrDriverNotAssignedToRide = apperr.New(apperr.ValidationFailed, "driver not assigned to this ride")
	ErrInvalidTripMetrics      = apperr.New(apperr.ValidationFailed, "invalid trip distance or duration")
	ErrTripNotFound            = apperr.New(apperr.NotFound, "trip not found")

	// Payment Service + Outbox Worker
	ErrInvalidPaymentAmount = apperr.New(apperr.ValidationFailed, "invalid payment amount")
	ErrInvalidPaymentID     = apperr.New(apperr.ValidationFailed, "invalid payment id")
	ErrMaxRetriesExceeded   = apperr.New(apperr.Unprocessable, "max retries exceeded")
	ErrUnauthorizedWebhook  = apperr.New(apperr.Unauthorized, "invalid webhook signature")

	// Ride cancellation
	ErrRideAlreadyCancelled = apperr.New(apperr.Conflict, "ride already cancelled")
	ErrRideCannotBeCancelled = apperr.New(apperr.InvalidTransition, "ride cannot be cancelled in current state")
)
