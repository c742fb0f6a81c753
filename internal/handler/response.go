package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ride/internal/apperr"
	"ride/internal/repository"
)

// timeLayout is the RFC3339 layout used across handler responses for
// timestamp fields.
const timeLayout = "2006-01-02T15:04:05Z07:00"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps a service-layer error to an HTTP status code by
// dispatching on its apperr.Kind, rather than switching on individual
// sentinel values.
func mapErrorToHTTPStatus(err error) int {
	if errors.Is(err, repository.ErrNotFound) {
		return http.StatusNotFound
	}

	kind, ok := apperr.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch kind {
	case apperr.ValidationFailed:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.InvalidTransition, apperr.Conflict:
		return http.StatusConflict
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.RateLimited:
		return http.StatusTooManyRequests
	case apperr.DependencyFailure:
		return http.StatusBadGateway
	case apperr.Unprocessable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
