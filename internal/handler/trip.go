package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ride/internal/domain"
	"ride/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService    *service.TripService
	receiptService *service.ReceiptService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService, receiptService *service.ReceiptService) *TripHandler {
	return &TripHandler{tripService: tripService, receiptService: receiptService}
}

// EndTripRequest is the HTTP request body for ending a trip. DurationSec is
// optional; when omitted the service derives it from the trip's own
// timestamps.
type EndTripRequest struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationSec int64   `json:"duration_sec,omitempty"`
}

// CancelTripRequest is the HTTP request body for cancelling a trip.
type CancelTripRequest struct {
	CancelledBy string `json:"cancelled_by"`
	Reason      string `json:"reason,omitempty"`
}

// TripResponse is the HTTP response shape for a trip.
type TripResponse struct {
	TripID      string  `json:"trip_id"`
	RideID      string  `json:"ride_id"`
	DriverID    string  `json:"driver_id"`
	Status      string  `json:"status"`
	BaseFare    float64 `json:"base_fare,omitempty"`
	TotalFare   float64 `json:"total_fare,omitempty"`
	DistanceKm  float64 `json:"distance_km,omitempty"`
	DurationSec int64   `json:"duration_sec,omitempty"`
	StartedAt   string  `json:"started_at,omitempty"`
	EndedAt     string  `json:"ended_at,omitempty"`
	PausedAt    string  `json:"paused_at,omitempty"`
	TotalPaused int64   `json:"total_paused_seconds,omitempty"`
}

func toTripResponse(trip *domain.Trip) TripResponse {
	resp := TripResponse{
		TripID:      trip.ID,
		RideID:      trip.RideID,
		DriverID:    trip.DriverID,
		Status:      string(trip.Status),
		BaseFare:    trip.BaseFare,
		TotalFare:   trip.TotalFare,
		DistanceKm:  trip.DistanceKm,
		DurationSec: trip.DurationSec,
		TotalPaused: int64(trip.TotalPaused.Seconds()),
	}
	if !trip.StartedAt.IsZero() {
		resp.StartedAt = trip.StartedAt.Format(timeLayout)
	}
	if !trip.EndedAt.IsZero() {
		resp.EndedAt = trip.EndedAt.Format(timeLayout)
	}
	if !trip.PausedAt.IsZero() {
		resp.PausedAt = trip.PausedAt.Format(timeLayout)
	}
	return resp
}

// EndTripResponse is the HTTP response for ending a trip, joining the
// closed-out trip with the payment it kicked off.
type EndTripResponse struct {
	Trip    TripResponse `json:"trip"`
	Payment *PaymentInfo `json:"payment,omitempty"`
}

// PaymentInfo is the compact payment view embedded in trip responses.
type PaymentInfo struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Status string  `json:"status"`
}

// ReceiptResponse is the HTTP response for GET /v1/trips/:id/receipt.
type ReceiptResponse struct {
	ID              string  `json:"id"`
	TripID          string  `json:"trip_id"`
	RideID          string  `json:"ride_id"`
	DriverID        string  `json:"driver_id"`
	RiderID         string  `json:"rider_id"`
	Tier            string  `json:"tier"`
	BaseFare        float64 `json:"base_fare"`
	SurgeMultiplier float64 `json:"surge_multiplier"`
	SurgeAmount     float64 `json:"surge_amount"`
	TotalFare       float64 `json:"total_fare"`
	PaymentMethod   string  `json:"payment_method"`
	PaymentStatus   string  `json:"payment_status"`
	DistanceKm      float64 `json:"distance_km"`
	DurationSec     int64   `json:"duration_sec"`
}

// Start handles POST /v1/trips/:id/start
func (h *TripHandler) Start(c *gin.Context) {
	tripID := c.Param("id")

	trip, err := h.tripService.Start(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Pause handles POST /v1/trips/:id/pause
func (h *TripHandler) Pause(c *gin.Context) {
	tripID := c.Param("id")

	trip, err := h.tripService.Pause(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Resume handles POST /v1/trips/:id/resume
func (h *TripHandler) Resume(c *gin.Context) {
	tripID := c.Param("id")

	trip, err := h.tripService.Resume(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Cancel handles POST /v1/trips/:id/cancel
func (h *TripHandler) Cancel(c *gin.Context) {
	tripID := c.Param("id")

	var req CancelTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.tripService.Cancel(c.Request.Context(), tripID, req.CancelledBy, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// End handles POST /v1/trips/:id/end
func (h *TripHandler) End(c *gin.Context) {
	tripID := c.Param("id")

	var req EndTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.tripService.End(c.Request.Context(), service.EndTripRequest{
		TripID:      tripID,
		DistanceKm:  req.DistanceKm,
		DurationSec: req.DurationSec,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := EndTripResponse{Trip: toTripResponse(result.Trip)}
	if result.Payment != nil {
		response.Payment = &PaymentInfo{
			ID:     result.Payment.ID,
			Amount: result.Payment.Amount,
			Status: string(result.Payment.Status),
		}
	}

	respondJSON(c, http.StatusOK, response)
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	tripID := c.Param("id")

	trip, err := h.tripService.GetTrip(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetReceipt handles GET /v1/trips/:id/receipt
func (h *TripHandler) GetReceipt(c *gin.Context) {
	tripID := c.Param("id")

	receipt, err := h.receiptService.Get(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ReceiptResponse{
		ID:              receipt.ID,
		TripID:          receipt.TripID,
		RideID:          receipt.RideID,
		DriverID:        receipt.DriverID,
		RiderID:         receipt.RiderID,
		Tier:            string(receipt.Tier),
		BaseFare:        receipt.BaseFare,
		SurgeMultiplier: receipt.SurgeMultiplier,
		SurgeAmount:     receipt.SurgeAmount,
		TotalFare:       receipt.TotalFare,
		PaymentMethod:   string(receipt.PaymentMethod),
		PaymentStatus:   string(receipt.PaymentStatus),
		DistanceKm:      receipt.DistanceKm,
		DurationSec:     receipt.DurationSec,
	})
}
