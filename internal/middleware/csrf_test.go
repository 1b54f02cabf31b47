package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestEnsureCSRFCookie_IssuesCookieOnce(t *testing.T) {
	handler := EnsureCSRFCookie(false)(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "csrf_token", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.False(t, cookies[0].HttpOnly)

	// A client that already carries the cookie gets no new one.
	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Empty(t, w.Result().Cookies())
}

func TestCSRFProtection(t *testing.T) {
	handler := CSRFProtection(slog.Default())(okHandler())
	token := "testtoken123"

	// Safe methods pass without the token.
	req := httptest.NewRequest("GET", "/about", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)

	// State-changing request without token is rejected.
	req = httptest.NewRequest("POST", "/auth/login", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, 403, w.Code)

	// Header without matching cookie is rejected.
	req = httptest.NewRequest("POST", "/auth/login", nil)
	req.Header.Set("X-CSRF-Token", token)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, 403, w.Code)

	// Mismatched header and cookie are rejected.
	req = httptest.NewRequest("POST", "/auth/login", nil)
	req.Header.Set("X-CSRF-Token", "different")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: token})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, 403, w.Code)

	// Matching header and cookie pass.
	req = httptest.NewRequest("POST", "/auth/login", nil)
	req.Header.Set("X-CSRF-Token", token)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: token})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)
}
