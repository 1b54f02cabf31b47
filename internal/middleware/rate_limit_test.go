package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestRateLimitByIP_AllowsWithinLimit verifies requests under the limit pass through
func TestRateLimitByIP_AllowsWithinLimit(t *testing.T) {
	limiter := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 5})

	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "192.168.1.1:8080"
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusOK {
			t.Errorf("request %d: expected status 200, got %d", i+1, recorder.Code)
		}
	}
}

// TestRateLimitByIP_BlocksOverLimit verifies the request past the limit gets 429
func TestRateLimitByIP_BlocksOverLimit(t *testing.T) {
	limiter := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 2})

	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() int {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "192.168.1.2:8080"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		return recorder.Code
	}

	send()
	send()
	if code := send(); code != http.StatusTooManyRequests {
		t.Errorf("expected status 429 after limit, got %d", code)
	}
}

// TestRateLimitByIP_SeparateKeysPerIP verifies one client cannot exhaust another's budget
func TestRateLimitByIP_SeparateKeysPerIP(t *testing.T) {
	limiter := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 1})

	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = addr
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		return recorder.Code
	}

	send("10.0.0.1:1234")
	if code := send("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429 for exhausted client, got %d", code)
	}
	if code := send("10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("expected 200 for fresh client, got %d", code)
	}
}
