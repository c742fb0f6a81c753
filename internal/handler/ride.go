package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ride/internal/domain"
	"ride/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// CreateRideRequest is the HTTP request body for creating a ride.
type CreateRideRequest struct {
	RiderID         string  `json:"rider_id"`
	PickupLat       float64 `json:"pickup_lat"`
	PickupLng       float64 `json:"pickup_lng"`
	DestinationLat  float64 `json:"destination_lat"`
	DestinationLng  float64 `json:"destination_lng"`
	Tier            string  `json:"tier,omitempty"`
	PaymentMethod   string  `json:"payment_method,omitempty"` // CASH, CARD, WALLET, UPI
	SurgeMultiplier float64 `json:"surge_multiplier,omitempty"`
}

// CancelRideRequest is the HTTP request body for cancelling a ride.
type CancelRideRequest struct {
	CancelledBy string `json:"cancelled_by"`
	Reason      string `json:"reason,omitempty"`
}

// RideResponse is the HTTP response shape for a ride.
type RideResponse struct {
	ID               string  `json:"id"`
	RiderID          string  `json:"rider_id"`
	PickupLat        float64 `json:"pickup_lat"`
	PickupLng        float64 `json:"pickup_lng"`
	DestinationLat   float64 `json:"destination_lat"`
	DestinationLng   float64 `json:"destination_lng"`
	Tier             string  `json:"tier"`
	Status           string  `json:"status"`
	AssignedDriverID string  `json:"assigned_driver_id,omitempty"`
	SurgeMultiplier  float64 `json:"surge_multiplier"`
	PaymentMethod    string  `json:"payment_method"`
	CancelledAt      string  `json:"cancelled_at,omitempty"`
	CancelReason     string  `json:"cancel_reason,omitempty"`
}

// CreateRideResponse is the HTTP response for creating a ride.
type CreateRideResponse struct {
	Ride             RideResponse `json:"ride"`
	NearbyCandidates int          `json:"nearby_candidates"`
}

func toRideResponse(ride *domain.Ride) RideResponse {
	resp := RideResponse{
		ID:               ride.ID,
		RiderID:          ride.RiderID,
		PickupLat:        ride.PickupLat,
		PickupLng:        ride.PickupLng,
		DestinationLat:   ride.DestinationLat,
		DestinationLng:   ride.DestinationLng,
		Tier:             string(ride.Tier),
		Status:           string(ride.Status),
		AssignedDriverID: ride.AssignedDriverID,
		SurgeMultiplier:  ride.SurgeMultiplier,
		PaymentMethod:    string(ride.PaymentMethod),
	}
	if !ride.CancelledAt.IsZero() {
		resp.CancelledAt = ride.CancelledAt.Format(timeLayout)
		resp.CancelReason = ride.CancelReason
	}
	return resp
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	paymentMethod, err := service.ValidatePaymentMethod(req.PaymentMethod)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.rideService.CreateRide(c.Request.Context(), service.CreateRideRequest{
		RiderID:         req.RiderID,
		PickupLat:       req.PickupLat,
		PickupLng:       req.PickupLng,
		DestinationLat:  req.DestinationLat,
		DestinationLng:  req.DestinationLng,
		Tier:            domain.RideTier(req.Tier),
		PaymentMethod:   paymentMethod,
		SurgeMultiplier: req.SurgeMultiplier,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, CreateRideResponse{
		Ride:             toRideResponse(result.Ride),
		NearbyCandidates: result.NearbyCandidates,
	})
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	rideID := c.Param("id")

	ride, err := h.rideService.GetRideStatus(c.Request.Context(), rideID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	rideID := c.Param("id")

	var req CancelRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.CancelRide(c.Request.Context(), service.CancelRideRequest{
		RideID:      rideID,
		CancelledBy: req.CancelledBy,
		Reason:      req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}
