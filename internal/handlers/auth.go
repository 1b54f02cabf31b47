package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/apvaldes/healthcenter/internal/auth"
	"github.com/apvaldes/healthcenter/internal/models"
	"github.com/apvaldes/healthcenter/internal/services"
	pkgauth "github.com/apvaldes/healthcenter/pkg/auth"
	pkghttp "github.com/apvaldes/healthcenter/pkg/http"
	"github.com/go-chi/chi/v5"
)

// AuthServiceInterface defines the accounts business logic used by the handler.
type AuthServiceInterface interface {
	Login(ctx context.Context, req *services.LoginRequest) (*services.LoginResult, error)
	Register(ctx context.Context, input *services.RegisterInput) (*models.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	Logout(ctx context.Context, userID, sessionKey string) error
	TerminateSession(ctx context.Context, sessionID, ownerID string) error
	GetProfile(ctx context.Context, user *models.User) (*services.Profile, error)
	UpdateProfile(ctx context.Context, userID string, input *services.ProfileInput) (*models.User, error)
	SetupTwoFactor(ctx context.Context, user *models.User) (string, string, error)
	EnableTwoFactor(ctx context.Context, user *models.User, code string) error
	DisableTwoFactor(ctx context.Context, user *models.User, password string) error
}

// AuthHandler handles account and session HTTP requests.
type AuthHandler struct {
	service      AuthServiceInterface
	cookieConfig auth.CookieConfig
	ipConfig     *pkghttp.IPConfig
}

func NewAuthHandler(service AuthServiceInterface, cookieConfig auth.CookieConfig, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:      service,
		cookieConfig: cookieConfig,
		ipConfig:     ipConfig,
	}
}

// Request DTOs

type LoginRequest struct {
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
	TOTPCode   string `json:"totp_code,omitempty"`
	RememberMe bool   `json:"remember_me"`
}

type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required,max=30"`
	LastName  string `json:"last_name" validate:"required,max=30"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name" validate:"required,max=30"`
	LastName  string `json:"last_name" validate:"required,max=30"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

type TwoFactorEnableRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

type TwoFactorDisableRequest struct {
	Password string `json:"password" validate:"required"`
}

// Response DTOs

type UserResponse struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Role             string `json:"role"`
	TwoFactorEnabled bool   `json:"two_factor_enabled"`
	CreatedAt        string `json:"created_at"`
}

type LoginResponse struct {
	User                   *UserResponse `json:"user"`
	PasswordChangeRequired bool          `json:"password_change_required"`
}

type AttemptResponse struct {
	IPAddress     string `json:"ip_address"`
	UserAgent     string `json:"user_agent"`
	Success       bool   `json:"success"`
	FailureReason string `json:"failure_reason,omitempty"`
	AttemptTime   string `json:"attempt_time"`
}

type SessionResponse struct {
	ID           string `json:"id"`
	IPAddress    string `json:"ip_address"`
	UserAgent    string `json:"user_agent"`
	CreatedAt    string `json:"created_at"`
	LastActivity string `json:"last_activity"`
	Current      bool   `json:"current"`
}

type ProfileResponse struct {
	User           *UserResponse      `json:"user"`
	RecentAttempts []*AttemptResponse `json:"recent_attempts"`
	ActiveSessions []*SessionResponse `json:"active_sessions"`
	PasswordAge    string             `json:"password_age"`
}

func userToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:               user.ID,
		Username:         user.Username,
		Email:            user.Email,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Phone:            user.Phone,
		Role:             user.Role,
		TwoFactorEnabled: user.TwoFactorEnabled,
		CreatedAt:        user.CreatedAt.Format(time.RFC3339),
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if err := ValidateLoginUsername(req.Username); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.Login(r.Context(), &services.LoginRequest{
		Username:   req.Username,
		Password:   req.Password,
		TOTPCode:   req.TOTPCode,
		RememberMe: req.RememberMe,
		IPAddress:  pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent:  r.Header.Get("User-Agent"),
	})
	if err != nil {
		h.writeLoginError(w, err)
		return
	}

	auth.SetSessionCookie(w, result.SessionKey, result.SessionLifetime, h.cookieConfig)

	pkghttp.WriteJSON(w, http.StatusOK, LoginResponse{
		User:                   userToResponse(result.User),
		PasswordChangeRequired: result.PasswordChangeRequired,
	})
}

func (h *AuthHandler) writeLoginError(w http.ResponseWriter, err error) {
	var credErr *services.CredentialsError
	switch {
	case errors.As(err, &credErr):
		// The remaining-attempts counter is only shown for a known account
		// that is not yet locked.
		if credErr.Remaining > 0 {
			pkghttp.WriteError(w, http.StatusUnauthorized, "invalid_credentials",
				fmt.Sprintf("Invalid credentials. %d attempts remaining.", credErr.Remaining))
			return
		}
		if credErr.Remaining == 0 {
			pkghttp.WriteError(w, http.StatusUnauthorized, "account_locked",
				"Account locked due to too many failed attempts.")
			return
		}
		pkghttp.WriteUnauthorized(w, "Invalid credentials.")
	case errors.Is(err, models.ErrAccountLocked):
		pkghttp.WriteError(w, http.StatusUnauthorized, "account_locked",
			"Account is locked due to too many failed login attempts. Please try again later.")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if err := ValidateRegistrationUsername(req.Username); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := ValidatePhone(req.Phone); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.Register(r.Context(), &services.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		var pwErr *pkgauth.PasswordValidationError
		switch {
		case errors.As(err, &pwErr):
			pkghttp.WriteErrorWithDetails(w, http.StatusBadRequest, "weak_password",
				"Password does not meet the strength requirements", pwErr.Error())
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, userToResponse(user))
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	sessionKey, ok := auth.SessionKeyFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Logout(r.Context(), user.ID, sessionKey); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	auth.ClearSessionCookie(w, h.cookieConfig)
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword handles POST /auth/change-password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		var pwErr *pkgauth.PasswordValidationError
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteUnauthorized(w, "Current password is incorrect")
		case errors.Is(err, models.ErrPasswordReuse):
			pkghttp.WriteBadRequest(w, "New password must be different from the current password")
		case errors.As(err, &pwErr):
			pkghttp.WriteErrorWithDetails(w, http.StatusBadRequest, "weak_password",
				"Password does not meet the strength requirements", pwErr.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetProfile handles GET /auth/profile.
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), user)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	currentKey, _ := auth.SessionKeyFromContext(r.Context())

	attempts := make([]*AttemptResponse, 0, len(profile.RecentAttempts))
	for _, a := range profile.RecentAttempts {
		resp := &AttemptResponse{
			IPAddress:   a.IPAddress,
			UserAgent:   a.UserAgent,
			Success:     a.Success,
			AttemptTime: a.AttemptTime.Format(time.RFC3339),
		}
		if a.FailureReason != nil {
			resp.FailureReason = *a.FailureReason
		}
		attempts = append(attempts, resp)
	}

	sessions := make([]*SessionResponse, 0, len(profile.ActiveSessions))
	for _, s := range profile.ActiveSessions {
		sessions = append(sessions, &SessionResponse{
			ID:           s.ID,
			IPAddress:    s.IPAddress,
			UserAgent:    s.UserAgent,
			CreatedAt:    s.CreatedAt.Format(time.RFC3339),
			LastActivity: s.LastActivity.Format(time.RFC3339),
			Current:      s.SessionKey == currentKey,
		})
	}

	pkghttp.WriteJSON(w, http.StatusOK, ProfileResponse{
		User:           userToResponse(user),
		RecentAttempts: attempts,
		ActiveSessions: sessions,
		PasswordAge:    user.PasswordAge(time.Now().UTC()).Round(time.Hour).String(),
	})
}

// UpdateProfile handles PUT /auth/profile.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := ValidatePhone(req.Phone); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), user.ID, &services.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			pkghttp.WriteConflict(w, err.Error())
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, userToResponse(updated))
}

// TerminateSession handles POST /auth/sessions/{id}/terminate. Unknown and
// unowned ids get the same not-found answer.
func (h *AuthHandler) TerminateSession(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		pkghttp.WriteBadRequest(w, "Session id is required")
		return
	}

	if err := h.service.TerminateSession(r.Context(), sessionID, user.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Session not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetupTwoFactor handles POST /auth/two-factor/setup.
func (h *AuthHandler) SetupTwoFactor(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	secret, qrDataURL, err := h.service.SetupTwoFactor(r.Context(), user)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"secret":  secret,
		"qr_code": qrDataURL,
	})
}

// EnableTwoFactor handles POST /auth/two-factor/enable.
func (h *AuthHandler) EnableTwoFactor(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req TwoFactorEnableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.EnableTwoFactor(r.Context(), user, req.Code); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidTwoFactor):
			pkghttp.WriteBadRequest(w, "Invalid verification code")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Two-factor setup has not been started")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DisableTwoFactor handles POST /auth/two-factor/disable.
func (h *AuthHandler) DisableTwoFactor(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req TwoFactorDisableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.DisableTwoFactor(r.Context(), user, req.Password); err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			pkghttp.WriteUnauthorized(w, "Password is incorrect")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
