package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
)

const csrfCookieName = "csrf_token"

// EnsureCSRFCookie issues a random CSRF cookie to clients that do not carry
// one yet. The cookie is intentionally readable by scripts so a browser client
// can mirror it into the X-CSRF-Token header.
func EnsureCSRFCookie(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := r.Cookie(csrfCookieName); err != nil {
				buf := make([]byte, 32)
				if _, err := rand.Read(buf); err == nil {
					http.SetCookie(w, &http.Cookie{
						Name:     csrfCookieName,
						Value:    hex.EncodeToString(buf),
						Path:     "/",
						Secure:   secure,
						HttpOnly: false,
						SameSite: http.SameSiteLaxMode,
					})
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CSRFProtection validates the double-submit cookie on state-changing
// requests: the X-CSRF-Token header must match the csrf_token cookie.
func CSRFProtection(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			headerToken := r.Header.Get("X-CSRF-Token")
			cookie, err := r.Cookie(csrfCookieName)
			if headerToken == "" || err != nil ||
				subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookie.Value)) != 1 {
				logger.Warn("csrf validation failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				http.Error(w, "CSRF token invalid", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}
