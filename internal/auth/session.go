package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"
)

// SessionCookieName is the cookie carrying the opaque session key.
const SessionCookieName = "hc_session"

const sessionKeyBytes = 32 // 256 bits

// CookieConfig holds cookie attributes shared by all session cookies.
type CookieConfig struct {
	Domain string
	Secure bool
}

// GenerateSessionKey returns a new random session key. The key is opaque: all
// session state lives in the session registry, which is what makes individual
// sessions revocable.
func GenerateSessionKey() (string, error) {
	b := make([]byte, sessionKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// SetSessionCookie writes the session cookie. With lifetime zero the cookie
// carries no Max-Age/Expires, so it lasts until the browser closes; the
// remember-me flow passes the configured long lifetime instead.
func SetSessionCookie(w http.ResponseWriter, sessionKey string, lifetime time.Duration, config CookieConfig) {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionKey,
		Path:     "/",
		Domain:   config.Domain,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	if lifetime > 0 {
		cookie.MaxAge = int(lifetime.Seconds())
		cookie.Expires = time.Now().Add(lifetime)
	}

	http.SetCookie(w, cookie)
}

// ClearSessionCookie deletes the session cookie.
func ClearSessionCookie(w http.ResponseWriter, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetSessionCookie retrieves the session key from the request cookies.
func GetSessionCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}
