package psp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// WebhookEvent is the payload a PSP posts back once a charge reaches a
// terminal state.
type WebhookEvent struct {
	PSPTransactionID string `json:"psp_transaction_id"`
	IdempotencyKey   string `json:"idempotency_key"`
	Status           string `json:"status"` // COMPLETED or FAILED
	FailureReason    string `json:"failure_reason,omitempty"`
	RawResponse      string `json:"-"`
}

// VerifySignature checks an HMAC-SHA256 signature (hex-encoded) over body
// using secret, in constant time. This is the webhook's only
// authentication — there is no session or API key on this endpoint.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseWebhook decodes a verified webhook body.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("psp: malformed webhook body: %w", err)
	}
	ev.RawResponse = string(body)
	return &ev, nil
}
