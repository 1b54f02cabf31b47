package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSessionKey(t *testing.T) {
	key1, err := GenerateSessionKey()
	require.NoError(t, err)
	assert.Len(t, key1, 64) // 32 bytes hex encoded

	key2, err := GenerateSessionKey()
	require.NoError(t, err)
	assert.NotEqual(t, key1, key2)
}

func TestSetSessionCookie_BrowserSession(t *testing.T) {
	w := httptest.NewRecorder()
	SetSessionCookie(w, "key123", 0, CookieConfig{})

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	cookie := cookies[0]
	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.Equal(t, "key123", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	// No Max-Age or Expires: the cookie dies with the browser.
	assert.Equal(t, 0, cookie.MaxAge)
	assert.True(t, cookie.Expires.IsZero())
}

func TestSetSessionCookie_RememberMe(t *testing.T) {
	w := httptest.NewRecorder()
	SetSessionCookie(w, "key123", 14*24*time.Hour, CookieConfig{Secure: true})

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	cookie := cookies[0]
	assert.Equal(t, int((14 * 24 * time.Hour).Seconds()), cookie.MaxAge)
	assert.False(t, cookie.Expires.IsZero())
	assert.True(t, cookie.Secure)
}

func TestClearSessionCookie(t *testing.T) {
	w := httptest.NewRecorder()
	ClearSessionCookie(w, CookieConfig{})

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestGetSessionCookie(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	_, err := GetSessionCookie(req)
	assert.Error(t, err)

	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "key123"})
	key, err := GetSessionCookie(req)
	require.NoError(t, err)
	assert.Equal(t, "key123", key)
}
