package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func TestByClientID_PrefersHeaderOverQueryAndIP(t *testing.T) {
	keyFunc := ByClientID("rider_id")

	c, _ := newTestContext(http.MethodGet, "/v1/rides?rider_id=query-rider")
	c.Request.Header.Set("X-Client-ID", "header-rider")
	if got := keyFunc(c); got != "header-rider" {
		t.Errorf("expected header to take priority, got %q", got)
	}
}

func TestByClientID_FallsBackToQueryParam(t *testing.T) {
	keyFunc := ByClientID("rider_id")

	c, _ := newTestContext(http.MethodGet, "/v1/rides?rider_id=query-rider")
	if got := keyFunc(c); got != "query-rider" {
		t.Errorf("expected query param fallback, got %q", got)
	}
}

func TestByClientID_FallsBackToClientIP(t *testing.T) {
	keyFunc := ByClientID("rider_id")

	c, _ := newTestContext(http.MethodGet, "/v1/rides")
	c.Request.RemoteAddr = "203.0.113.7:54321"
	if got := keyFunc(c); got == "" {
		t.Error("expected a non-empty client IP fallback")
	}
}

func TestByDriverID_ReadsIDPathParam(t *testing.T) {
	c, _ := newTestContext(http.MethodPost, "/v1/drivers/driver-42/location")
	c.Params = gin.Params{{Key: "id", Value: "driver-42"}}
	if got := ByDriverID(c); got != "driver-42" {
		t.Errorf("expected driver-42, got %q", got)
	}
}

func TestByDriverID_EmptyWhenParamMissing(t *testing.T) {
	c, _ := newTestContext(http.MethodPost, "/v1/drivers//location")
	if got := ByDriverID(c); got != "" {
		t.Errorf("expected empty key when :id is absent, got %q", got)
	}
}
