package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/apvaldes/healthcenter/internal/auth"
	"github.com/apvaldes/healthcenter/internal/models"
	"github.com/apvaldes/healthcenter/internal/services"
	pkghttp "github.com/apvaldes/healthcenter/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithUserContext attaches an authenticated user to the request context the
// way the session middleware does.
func WithUserContext(req *http.Request, user *models.User, sessionKey string) *http.Request {
	return req.WithContext(auth.ContextWithUser(req.Context(), user, sessionKey))
}

// TestUser builds a plain member account for handler tests.
func TestUser(id, username string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:                id,
		Username:          username,
		Email:             username + "@example.com",
		Role:              models.RoleMember,
		PasswordChangedAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc            func(ctx context.Context, req *services.LoginRequest) (*services.LoginResult, error)
	RegisterFunc         func(ctx context.Context, input *services.RegisterInput) (*models.User, error)
	ChangePasswordFunc   func(ctx context.Context, userID, oldPassword, newPassword string) error
	LogoutFunc           func(ctx context.Context, userID, sessionKey string) error
	TerminateSessionFunc func(ctx context.Context, sessionID, ownerID string) error
	GetProfileFunc       func(ctx context.Context, user *models.User) (*services.Profile, error)
	UpdateProfileFunc    func(ctx context.Context, userID string, input *services.ProfileInput) (*models.User, error)
	SetupTwoFactorFunc   func(ctx context.Context, user *models.User) (string, string, error)
	EnableTwoFactorFunc  func(ctx context.Context, user *models.User, code string) error
	DisableTwoFactorFunc func(ctx context.Context, user *models.User, password string) error
}

func (m *MockAuthService) Login(ctx context.Context, req *services.LoginRequest) (*services.LoginResult, error) {
	if m.LoginFunc == nil {
		return nil, &services.CredentialsError{Remaining: -1}
	}
	return m.LoginFunc(ctx, req)
}

func (m *MockAuthService) Register(ctx context.Context, input *services.RegisterInput) (*models.User, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, input)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if m.ChangePasswordFunc == nil {
		return nil
	}
	return m.ChangePasswordFunc(ctx, userID, oldPassword, newPassword)
}

func (m *MockAuthService) Logout(ctx context.Context, userID, sessionKey string) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, userID, sessionKey)
}

func (m *MockAuthService) TerminateSession(ctx context.Context, sessionID, ownerID string) error {
	if m.TerminateSessionFunc == nil {
		return nil
	}
	return m.TerminateSessionFunc(ctx, sessionID, ownerID)
}

func (m *MockAuthService) GetProfile(ctx context.Context, user *models.User) (*services.Profile, error) {
	if m.GetProfileFunc == nil {
		return &services.Profile{User: user}, nil
	}
	return m.GetProfileFunc(ctx, user)
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, userID string, input *services.ProfileInput) (*models.User, error) {
	if m.UpdateProfileFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.UpdateProfileFunc(ctx, userID, input)
}

func (m *MockAuthService) SetupTwoFactor(ctx context.Context, user *models.User) (string, string, error) {
	if m.SetupTwoFactorFunc == nil {
		return "", "", models.ErrInternalServer
	}
	return m.SetupTwoFactorFunc(ctx, user)
}

func (m *MockAuthService) EnableTwoFactor(ctx context.Context, user *models.User, code string) error {
	if m.EnableTwoFactorFunc == nil {
		return nil
	}
	return m.EnableTwoFactorFunc(ctx, user, code)
}

func (m *MockAuthService) DisableTwoFactor(ctx context.Context, user *models.User, password string) error {
	if m.DisableTwoFactorFunc == nil {
		return nil
	}
	return m.DisableTwoFactorFunc(ctx, user, password)
}
