package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ride/internal/domain"
	"ride/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService     *service.DriverService
	assignmentService *service.AssignmentService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService, assignmentService *service.AssignmentService) *DriverHandler {
	return &DriverHandler{driverService: driverService, assignmentService: assignmentService}
}

// RegisterDriverRequest is the HTTP request body for driver registration.
type RegisterDriverRequest struct {
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// UpdateLocationRequest is the HTTP request body for a location report.
type UpdateLocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UpdateStatusRequest is the HTTP request body for a driver status change.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// AcceptRideRequest is the HTTP request body for a driver accepting an
// assigned ride, opening the Trip aggregate.
type AcceptRideRequest struct {
	RideID string `json:"ride_id"`
}

// DriverResponse is the HTTP response shape for a driver.
type DriverResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Phone  string  `json:"phone"`
	Status string  `json:"status"`
	Lat    float64 `json:"lat,omitempty"`
	Lon    float64 `json:"lon,omitempty"`
	Rating float64 `json:"rating"`
}

func toDriverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:     d.ID,
		Name:   d.Name,
		Phone:  d.Phone,
		Status: string(d.Status),
		Lat:    d.Lat,
		Lon:    d.Lon,
		Rating: d.Rating,
	}
}

// Register handles POST /v1/drivers/register
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.driverService.Create(c.Request.Context(), service.CreateDriverRequest{
		Name:  req.Name,
		Phone: req.Phone,
		Lat:   req.Lat,
		Lon:   req.Lon,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDriverResponse(driver))
}

// GetDriver handles GET /v1/drivers/:id
func (h *DriverHandler) GetDriver(c *gin.Context) {
	driverID := c.Param("id")

	driver, err := h.driverService.Get(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// ListDrivers handles GET /v1/drivers
func (h *DriverHandler) ListDrivers(c *gin.Context) {
	status := domain.DriverStatus(c.Query("status"))

	drivers, err := h.driverService.List(c.Request.Context(), status, 100)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, toDriverResponse(d))
	}
	respondJSON(c, http.StatusOK, response)
}

// UpdateLocation handles POST /v1/drivers/:id/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	driverID := c.Param("id")

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.driverService.UpdateLocation(c.Request.Context(), service.UpdateLocationRequest{
		DriverID: driverID,
		Lat:      req.Lat,
		Lng:      req.Lng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateStatus handles POST /v1/drivers/:id/status
func (h *DriverHandler) UpdateStatus(c *gin.Context) {
	driverID := c.Param("id")

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.driverService.UpdateStatus(c.Request.Context(), driverID, domain.DriverStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// AcceptRide handles POST /v1/drivers/:id/accept, opening the Trip
// aggregate for a ride already assigned to this driver.
func (h *DriverHandler) AcceptRide(c *gin.Context) {
	driverID := c.Param("id")

	var req AcceptRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.assignmentService.InitializeTrip(c.Request.Context(), req.RideID, driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}
