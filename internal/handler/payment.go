package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ride/internal/psp"
	"ride/internal/service"
)

// PaymentHandler handles HTTP requests for payments, including the PSP
// webhook that moves an accepted payment to COMPLETED or FAILED.
type PaymentHandler struct {
	paymentService *service.PaymentService
	webhookSecret  string
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, webhookSecret: webhookSecret}
}

// PaymentResponse is the HTTP response for payment operations.
type PaymentResponse struct {
	ID             string  `json:"id"`
	TripID         string  `json:"trip_id"`
	Amount         float64 `json:"amount"`
	Status         string  `json:"status"`
	IdempotencyKey string  `json:"idempotency_key"`
	RetryCount     int     `json:"retry_count"`
	FailureReason  string  `json:"failure_reason,omitempty"`
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	paymentID := c.Param("id")

	payment, err := h.paymentService.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PaymentResponse{
		ID:             payment.ID,
		TripID:         payment.TripID,
		Amount:         payment.Amount,
		Status:         string(payment.Status),
		IdempotencyKey: payment.IdempotencyKey,
		RetryCount:     payment.RetryCount,
		FailureReason:  payment.FailureReason,
	})
}

// Webhook handles POST /v1/payments/webhook: the PSP's asynchronous
// notification of a charge's terminal outcome. The HMAC-SHA256 signature
// in the X-PSP-Signature header is this endpoint's only authentication —
// an invalid or missing one is rejected before the body is even parsed.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable body"})
		return
	}

	signature := c.GetHeader("X-PSP-Signature")
	if !psp.VerifySignature(h.webhookSecret, body, signature) {
		respondError(c, service.ErrUnauthorizedWebhook)
		return
	}

	event, err := psp.ParseWebhook(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), event); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
