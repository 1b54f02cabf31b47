package auth

import (
	"context"
	"net/http"

	"github.com/apvaldes/healthcenter/internal/models"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	userContextKey       contextKey = "user"
	sessionKeyContextKey contextKey = "session_key"
)

// SessionStore resolves and refreshes sessions for the middleware.
type SessionStore interface {
	GetActiveByKey(ctx context.Context, sessionKey string) (*models.UserSession, error)
	Touch(ctx context.Context, sessionKey string) error
}

// UserStore loads the session's owning user.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// SessionMiddleware resolves the session cookie to its user and injects both
// into the request context. Requests without a valid active session are
// rejected with 401; the handler chain behind this middleware can assume an
// authenticated user.
func SessionMiddleware(sessions SessionStore, users UserStore) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionKey, err := GetSessionCookie(r)
			if err != nil || sessionKey == "" {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			session, err := sessions.GetActiveByKey(r.Context(), sessionKey)
			if err != nil {
				http.Error(w, "invalid or expired session", http.StatusUnauthorized)
				return
			}

			user, err := users.GetByID(r.Context(), session.UserID)
			if err != nil {
				http.Error(w, "invalid or expired session", http.StatusUnauthorized)
				return
			}

			// Refresh activity; failure here should not reject the request.
			_ = sessions.Touch(r.Context(), sessionKey)

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user, sessionKey)))
		})
	}
}

// OptionalSessionMiddleware resolves the session cookie like SessionMiddleware
// but lets unauthenticated requests through with an empty context. Public
// read endpoints use it to widen results for staff.
func OptionalSessionMiddleware(sessions SessionStore, users UserStore) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionKey, err := GetSessionCookie(r)
			if err != nil || sessionKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := sessions.GetActiveByKey(r.Context(), sessionKey)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetByID(r.Context(), session.UserID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user, sessionKey)))
		})
	}
}

// RequireManager allows only users for whom CanManage holds. Must run behind
// SessionMiddleware.
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || !CanManage(user) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ContextWithUser returns ctx carrying the authenticated user and session key.
func ContextWithUser(ctx context.Context, user *models.User, sessionKey string) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	return context.WithValue(ctx, sessionKeyContextKey, sessionKey)
}

// UserFromContext extracts the authenticated user set by SessionMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok
}

// SessionKeyFromContext returns the current request's session key.
func SessionKeyFromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(sessionKeyContextKey).(string)
	return key, ok
}
