// Package psp models the payment service provider boundary: a Client that
// accepts a charge and acknowledges it asynchronously, plus the webhook
// signature verification that later turns that acknowledgement into a
// terminal payment state. Real PSPs (Stripe, Razorpay, etc.) all follow this
// accept-then-webhook shape; this package stands in for one.
package psp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ChargeRequest is a request to charge a trip's fare.
type ChargeRequest struct {
	IdempotencyKey string
	Amount         float64
}

// ChargeResult is the PSP's synchronous acknowledgement. Accepted means the
// PSP has queued the charge, not that funds have moved — COMPLETED/FAILED
// only ever arrive later, via a signed webhook.
type ChargeResult struct {
	Accepted         bool
	PSPTransactionID string
	Reason           string
}

// Client is the PSP-facing interface the Outbox Worker drives.
type Client interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// MockClient simulates a PSP for development and tests: it synchronously
// accepts every charge that carries an idempotency key. Its outcome — COMPLETED or FAILED — arrives
// later out of band, via Webhook, exactly as a real integration would.
type MockClient struct{}

// NewMockClient creates a new MockClient.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Charge accepts every request with a non-empty idempotency key (an empty
// key is an error), returning a synthetic transaction ID keyed to the
// idempotency key so repeated retries observe the same ID.
func (c *MockClient) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if req.IdempotencyKey == "" {
		return ChargeResult{}, fmt.Errorf("psp: idempotency key required")
	}
	return ChargeResult{
		Accepted:         true,
		PSPTransactionID: "mock_" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(req.IdempotencyKey)).String(),
	}, nil
}
