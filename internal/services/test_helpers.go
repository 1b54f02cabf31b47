package services

import (
	"context"
	"time"

	"github.com/apvaldes/healthcenter/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc            func(ctx context.Context, id string) (*models.User, error)
	GetByUsernameFunc      func(ctx context.Context, username string) (*models.User, error)
	GetByEmailFunc         func(ctx context.Context, email string) (*models.User, error)
	CreateFunc             func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateProfileFunc      func(ctx context.Context, id string, user *models.User) (*models.User, error)
	RecordLoginFailureFunc func(ctx context.Context, id string, threshold int, lockDuration time.Duration) (int, *time.Time, error)
	ResetLoginFailuresFunc func(ctx context.Context, id string) error
	ClearExpiredLockFunc   func(ctx context.Context, id string, now time.Time) error
	UpdateLastLoginIPFunc  func(ctx context.Context, id, ip string) error
	UpdatePasswordFunc     func(ctx context.Context, id, passwordHash string) error
	SetTwoFactorFunc       func(ctx context.Context, id string, enabled bool, secret string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id string, user *models.User) (*models.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) RecordLoginFailure(ctx context.Context, id string, threshold int, lockDuration time.Duration) (int, *time.Time, error) {
	if m.RecordLoginFailureFunc != nil {
		return m.RecordLoginFailureFunc(ctx, id, threshold, lockDuration)
	}
	return 1, nil, nil
}

func (m *MockUserRepository) ResetLoginFailures(ctx context.Context, id string) error {
	if m.ResetLoginFailuresFunc != nil {
		return m.ResetLoginFailuresFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) ClearExpiredLock(ctx context.Context, id string, now time.Time) error {
	if m.ClearExpiredLockFunc != nil {
		return m.ClearExpiredLockFunc(ctx, id, now)
	}
	return nil
}

func (m *MockUserRepository) UpdateLastLoginIP(ctx context.Context, id, ip string) error {
	if m.UpdateLastLoginIPFunc != nil {
		return m.UpdateLastLoginIPFunc(ctx, id, ip)
	}
	return nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) SetTwoFactor(ctx context.Context, id string, enabled bool, secret string) error {
	if m.SetTwoFactorFunc != nil {
		return m.SetTwoFactorFunc(ctx, id, enabled, secret)
	}
	return nil
}

// MockAttemptLog implements AttemptLog for testing
type MockAttemptLog struct {
	RecordFunc               func(ctx context.Context, attempt *models.LoginAttempt) error
	ListRecentByUsernameFunc func(ctx context.Context, username string, limit int) ([]*models.LoginAttempt, error)

	Recorded []*models.LoginAttempt
}

func (m *MockAttemptLog) Record(ctx context.Context, attempt *models.LoginAttempt) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, attempt)
	}
	m.Recorded = append(m.Recorded, attempt)
	return nil
}

func (m *MockAttemptLog) ListRecentByUsername(ctx context.Context, username string, limit int) ([]*models.LoginAttempt, error) {
	if m.ListRecentByUsernameFunc != nil {
		return m.ListRecentByUsernameFunc(ctx, username, limit)
	}
	return []*models.LoginAttempt{}, nil
}

// MockSessionRegistry implements SessionRegistry for testing
type MockSessionRegistry struct {
	UpsertFunc           func(ctx context.Context, session *models.UserSession) error
	DeactivateByKeyFunc  func(ctx context.Context, sessionKey string) error
	DeactivateOwnedFunc  func(ctx context.Context, id, ownerID string) error
	ListActiveByUserFunc func(ctx context.Context, userID string) ([]*models.UserSession, error)

	Upserted []*models.UserSession
}

func (m *MockSessionRegistry) Upsert(ctx context.Context, session *models.UserSession) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, session)
	}
	m.Upserted = append(m.Upserted, session)
	return nil
}

func (m *MockSessionRegistry) DeactivateByKey(ctx context.Context, sessionKey string) error {
	if m.DeactivateByKeyFunc != nil {
		return m.DeactivateByKeyFunc(ctx, sessionKey)
	}
	return nil
}

func (m *MockSessionRegistry) DeactivateOwned(ctx context.Context, id, ownerID string) error {
	if m.DeactivateOwnedFunc != nil {
		return m.DeactivateOwnedFunc(ctx, id, ownerID)
	}
	return nil
}

func (m *MockSessionRegistry) ListActiveByUser(ctx context.Context, userID string) ([]*models.UserSession, error) {
	if m.ListActiveByUserFunc != nil {
		return m.ListActiveByUserFunc(ctx, userID)
	}
	return []*models.UserSession{}, nil
}

// NewTestUser builds a user with the given password hashed at minimum cost so
// tests stay fast.
func NewTestUser(id, username, password string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	now := time.Now().UTC()
	return &models.User{
		ID:                id,
		Username:          username,
		Email:             username + "@example.com",
		PasswordHash:      string(hash),
		Role:              models.RoleMember,
		PasswordChangedAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
