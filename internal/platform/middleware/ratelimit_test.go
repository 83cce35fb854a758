package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func rateLimitedRequest(t *testing.T, mw echo.MiddlewareFunc, ip string) (int, http.Header) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", ip)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he.Code, c.Response().Header()
		}
		t.Fatalf("handler error: %v", err)
	}
	return rec.Code, rec.Header()
}

func TestRateLimit_AllowsWithinBurst(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 3})

	for i := 0; i < 3; i++ {
		code, headers := rateLimitedRequest(t, mw, "10.0.0.1")
		if code != http.StatusOK {
			t.Fatalf("request %d: code = %d", i+1, code)
		}
		if headers.Get("X-RateLimit-Limit") != "1" {
			t.Errorf("limit header = %q", headers.Get("X-RateLimit-Limit"))
		}
	}
}

func TestRateLimit_RejectsOverBurst(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})

	if code, _ := rateLimitedRequest(t, mw, "10.0.0.2"); code != http.StatusOK {
		t.Fatalf("first request: code = %d", code)
	}
	code, headers := rateLimitedRequest(t, mw, "10.0.0.2")
	if code != http.StatusTooManyRequests {
		t.Fatalf("second request: code = %d", code)
	}
	if headers.Get("Retry-After") == "" {
		t.Error("Retry-After header not set")
	}
	if headers.Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("remaining header = %q", headers.Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_KeysByIP(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})

	if code, _ := rateLimitedRequest(t, mw, "10.0.0.3"); code != http.StatusOK {
		t.Fatalf("first caller: code = %d", code)
	}
	if code, _ := rateLimitedRequest(t, mw, "10.0.0.4"); code != http.StatusOK {
		t.Fatalf("second caller should have a fresh bucket, code = %d", code)
	}
}
