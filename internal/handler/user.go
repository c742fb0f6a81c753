package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ride/internal/domain"
	"ride/internal/repository"
	"ride/internal/repository/postgres"
)

// UserHandler handles HTTP requests for riders.
type UserHandler struct {
	userRepo *postgres.UserRepository
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userRepo *postgres.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// RegisterRequest is the HTTP request body for rider registration.
type RegisterRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UserResponse is the HTTP response for rider data.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Register handles POST /v1/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Name == "" || req.Phone == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name and phone are required"})
		return
	}

	existing, err := h.userRepo.GetByPhone(c.Request.Context(), req.Phone)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{
			"message": "rider already registered",
			"user":    UserResponse{ID: existing.ID, Name: existing.Name, Phone: existing.Phone},
		})
		return
	}

	user := &domain.User{
		ID:    uuid.New().String(),
		Name:  req.Name,
		Phone: req.Phone,
	}
	if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, UserResponse{ID: user.ID, Name: user.Name, Phone: user.Phone})
}

// GetUser handles GET /v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, UserResponse{ID: user.ID, Name: user.Name, Phone: user.Phone})
}
