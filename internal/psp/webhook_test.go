package psp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_AcceptsValidSignature(t *testing.T) {
	body := []byte(`{"status":"COMPLETED"}`)
	secret := "webhook-secret"
	if !VerifySignature(secret, body, sign(secret, body)) {
		t.Error("expected a correctly signed body to verify")
	}
}

func TestVerifySignature_RejectsWrongSecret(t *testing.T) {
	body := []byte(`{"status":"COMPLETED"}`)
	if VerifySignature("wrong-secret", body, sign("webhook-secret", body)) {
		t.Error("expected signature signed with a different secret to be rejected")
	}
}

func TestVerifySignature_RejectsTamperedBody(t *testing.T) {
	secret := "webhook-secret"
	signature := sign(secret, []byte(`{"status":"COMPLETED"}`))
	if VerifySignature(secret, []byte(`{"status":"FAILED"}`), signature) {
		t.Error("expected a signature computed over a different body to be rejected")
	}
}

func TestVerifySignature_RejectsEmptySecretOrSignature(t *testing.T) {
	body := []byte(`{}`)
	if VerifySignature("", body, "deadbeef") {
		t.Error("expected empty secret to always fail verification")
	}
	if VerifySignature("secret", body, "") {
		t.Error("expected empty signature to always fail verification")
	}
}

func TestParseWebhook_DecodesFieldsAndPreservesRawBody(t *testing.T) {
	body := []byte(`{"psp_transaction_id":"tx-1","idempotency_key":"payment:trip-1","status":"COMPLETED"}`)
	event, err := ParseWebhook(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.PSPTransactionID != "tx-1" {
		t.Errorf("expected psp transaction id tx-1, got %s", event.PSPTransactionID)
	}
	if event.Status != "COMPLETED" {
		t.Errorf("expected status COMPLETED, got %s", event.Status)
	}
	if event.RawResponse != string(body) {
		t.Error("expected RawResponse to retain the verbatim body")
	}
}

func TestParseWebhook_RejectsMalformedJSON(t *testing.T) {
	if _, err := ParseWebhook([]byte(`not json`)); err == nil {
		t.Error("expected malformed JSON to return an error")
	}
}
