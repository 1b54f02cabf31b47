package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/apvaldes/healthcenter/internal/auth"
	"github.com/apvaldes/healthcenter/internal/models"
	pkgauth "github.com/apvaldes/healthcenter/pkg/auth"
	pkglogger "github.com/apvaldes/healthcenter/pkg/logger"
)

// UserRepository is the credential store surface the auth flow needs.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, user *models.User) (*models.User, error)
	RecordLoginFailure(ctx context.Context, id string, threshold int, lockDuration time.Duration) (int, *time.Time, error)
	ResetLoginFailures(ctx context.Context, id string) error
	ClearExpiredLock(ctx context.Context, id string, now time.Time) error
	UpdateLastLoginIP(ctx context.Context, id, ip string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetTwoFactor(ctx context.Context, id string, enabled bool, secret string) error
}

// AttemptLog is the append-only login attempt history.
type AttemptLog interface {
	Record(ctx context.Context, attempt *models.LoginAttempt) error
	ListRecentByUsername(ctx context.Context, username string, limit int) ([]*models.LoginAttempt, error)
}

// SessionRegistry tracks login sessions.
type SessionRegistry interface {
	Upsert(ctx context.Context, session *models.UserSession) error
	DeactivateByKey(ctx context.Context, sessionKey string) error
	DeactivateOwned(ctx context.Context, id, ownerID string) error
	ListActiveByUser(ctx context.Context, userID string) ([]*models.UserSession, error)
}

// CredentialsError is a failed credential check, carrying how many attempts
// remain before lockout. Remaining is -1 when the username does not resolve
// to an account, in which case the caller must show the same generic message
// as a password mismatch.
type CredentialsError struct {
	Remaining int
	TwoFactor bool // failure was the second factor, not the password
}

func (e *CredentialsError) Error() string {
	if e.TwoFactor {
		return "invalid two-factor code"
	}
	return "invalid credentials"
}

func (e *CredentialsError) Unwrap() error {
	if e.TwoFactor {
		return models.ErrInvalidTwoFactor
	}
	return models.ErrInvalidCredentials
}

// LockedError is returned while the account lock is still in force.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string { return "account is temporarily locked" }

func (e *LockedError) Unwrap() error { return models.ErrAccountLocked }

// LoginRequest is the request-scoped context for one authentication attempt:
// the submitted form plus the origin metadata every downstream step needs.
type LoginRequest struct {
	Username   string
	Password   string
	TOTPCode   string
	RememberMe bool
	IPAddress  string
	UserAgent  string
}

// LoginResult describes a successful authentication.
type LoginResult struct {
	User                   *models.User
	SessionKey             string
	SessionLifetime        time.Duration // zero means browser-session cookie
	PasswordChangeRequired bool
}

// RegisterInput carries a registration form.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// ProfileInput carries the caller-editable profile fields.
type ProfileInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// AuthService orchestrates the lockout policy, attempt log, session registry
// and credential store for each authentication operation.
type AuthService struct {
	users       UserRepository
	attempts    AttemptLog
	sessions    SessionRegistry
	lockout     LockoutPolicy
	totp        *auth.TOTPManager
	timing      *auth.TimingDelay
	rememberMe  time.Duration
	passwordAge time.Duration
	logger      *slog.Logger
	audit       *pkglogger.AuditLogger
}

func NewAuthService(
	users UserRepository,
	attempts AttemptLog,
	sessions SessionRegistry,
	lockout LockoutPolicy,
	totp *auth.TOTPManager,
	timing *auth.TimingDelay,
	rememberMe time.Duration,
	passwordAge time.Duration,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		users:       users,
		attempts:    attempts,
		sessions:    sessions,
		lockout:     lockout,
		totp:        totp,
		timing:      timing,
		rememberMe:  rememberMe,
		passwordAge: passwordAge,
		logger:      logger,
		audit:       audit,
	}
}

// Login runs the authentication state machine for one attempt: user lookup,
// lock check, credential check, then success or failure bookkeeping.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	start := time.Now()
	now := start.UTC()

	// USER_LOOKUP
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// One attempt row per request, same generic outcome as a
			// password mismatch so the failing branch is not leaked.
			s.recordAttempt(ctx, req, false, models.FailureUnknownUser)
			s.auditFailure(req, "", models.FailureUnknownUser)
			s.timing.WaitFrom(start)
			return nil, &CredentialsError{Remaining: -1}
		}
		s.logger.Error("failed to look up user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// LOCK_CHECK: credentials are never verified while the lock holds.
	if s.lockout.IsLocked(user, now) {
		s.recordAttempt(ctx, req, false, models.FailureAccountLocked)
		s.auditFailure(req, user.ID, models.FailureAccountLocked)
		s.timing.WaitFrom(start)
		return nil, &LockedError{Until: *user.LockedUntil}
	}

	// An elapsed lock self-heals before the credential check: counter back to
	// zero, lock cleared. The conditional UPDATE is idempotent.
	if s.lockout.HasExpiredLock(user, now) {
		if err := s.users.ClearExpiredLock(ctx, user.ID, now); err != nil {
			s.logger.Error("failed to clear expired lock", slog.String("user_id", user.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		user.FailedLoginAttempts = 0
		user.LockedUntil = nil
	}

	// CREDENTIAL_CHECK
	if err := pkgauth.ComparePassword(user.PasswordHash, req.Password); err != nil {
		return nil, s.failCredentials(ctx, req, user, start, false)
	}

	if user.TwoFactorEnabled {
		if req.TOTPCode == "" || !s.totp.Validate(user.TwoFactorSecret, req.TOTPCode) {
			return nil, s.failCredentials(ctx, req, user, start, true)
		}
	}

	// SUCCESS
	if err := s.users.ResetLoginFailures(ctx, user.ID); err != nil {
		s.logger.Error("failed to reset login failures", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil

	if err := s.users.UpdateLastLoginIP(ctx, user.ID, req.IPAddress); err != nil {
		s.logger.Warn("failed to update last login ip", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	s.recordAttempt(ctx, req, true, "")
	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Username:  user.Username,
		IPAddress: req.IPAddress,
		Success:   true,
	})

	sessionKey, err := auth.GenerateSessionKey()
	if err != nil {
		s.logger.Error("failed to generate session key", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Idempotent upsert: a session key maps to exactly one active row.
	if err := s.sessions.Upsert(ctx, &models.UserSession{
		UserID:     user.ID,
		SessionKey: sessionKey,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
	}); err != nil {
		s.logger.Error("failed to upsert session", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	var lifetime time.Duration
	if req.RememberMe {
		lifetime = s.rememberMe
	}

	return &LoginResult{
		User:                   user,
		SessionKey:             sessionKey,
		SessionLifetime:        lifetime,
		PasswordChangeRequired: user.RequirePasswordChange || user.PasswordAge(now) > s.passwordAge,
	}, nil
}

// failCredentials applies failure bookkeeping for a password or second-factor
// mismatch. The counter update is a single conditional UPDATE against the
// stored row, so concurrent failures for the same account cannot under-count.
func (s *AuthService) failCredentials(ctx context.Context, req *LoginRequest, user *models.User, start time.Time, twoFactor bool) error {
	count, lockedUntil, err := s.users.RecordLoginFailure(ctx, user.ID, s.lockout.Threshold, s.lockout.LockDuration)
	if err != nil {
		s.logger.Error("failed to record login failure", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	reason := models.FailureBadPassword
	if twoFactor {
		reason = models.FailureBadTwoFactor
	}
	s.recordAttempt(ctx, req, false, reason)
	s.auditFailure(req, user.ID, reason)

	if lockedUntil != nil {
		s.logger.Warn("account locked after repeated failures",
			slog.String("user_id", user.ID),
			slog.Int("failed_attempts", count),
			slog.Time("locked_until", *lockedUntil))
	}

	s.timing.WaitFrom(start)
	return &CredentialsError{Remaining: s.lockout.Remaining(count), TwoFactor: twoFactor}
}

// recordAttempt appends to the attempt log, best-effort: a logging failure
// must not block authentication. The attempt log is audit history, not
// policy input.
func (s *AuthService) recordAttempt(ctx context.Context, req *LoginRequest, success bool, reason string) {
	attempt := &models.LoginAttempt{
		Username:  req.Username,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		Success:   success,
	}
	if reason != "" {
		attempt.FailureReason = &reason
	}

	if err := s.attempts.Record(ctx, attempt); err != nil {
		s.logger.Warn("failed to record login attempt", slog.Any("error", err))
	}
}

func (s *AuthService) auditFailure(req *LoginRequest, userID, reason string) {
	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		UserID:        userID,
		Username:      req.Username,
		IPAddress:     req.IPAddress,
		Success:       false,
		FailureReason: reason,
	})
}

// Register creates a new account. Username and email must be unique; the
// password must satisfy the strength policy.
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if err := pkgauth.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("username is already taken: %w", models.ErrConflict)
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email address is already registered: %w", models.ErrConflict)
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.users.Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        strings.TrimSpace(input.Phone),
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

// ChangePassword verifies the old password, enforces the strength policy and
// the no-reuse rule, then stores the new hash. The current session stays
// valid; sessions are keyed independently of the password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, oldPassword); err != nil {
		s.audit.LogPasswordChange(userID, "", false)
		return models.ErrInvalidCredentials
	}

	if newPassword == oldPassword {
		return models.ErrPasswordReuse
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.audit.LogPasswordChange(userID, "", true)
	return nil
}

// Logout deactivates the session row and is idempotent.
func (s *AuthService) Logout(ctx context.Context, userID, sessionKey string) error {
	if err := s.sessions.DeactivateByKey(ctx, sessionKey); err != nil {
		return err
	}
	s.audit.LogSessionAction("logout", userID, "", "")
	return nil
}

// TerminateSession deactivates a session row the caller owns. An unowned or
// unknown id reports not-found without distinguishing the two.
func (s *AuthService) TerminateSession(ctx context.Context, sessionID, ownerID string) error {
	if err := s.sessions.DeactivateOwned(ctx, sessionID, ownerID); err != nil {
		return err
	}
	s.audit.LogSessionAction("session_terminated", ownerID, sessionID, "")
	return nil
}

// Profile bundles the user's recent login history and active sessions for the
// account page.
type Profile struct {
	User           *models.User
	RecentAttempts []*models.LoginAttempt
	ActiveSessions []*models.UserSession
}

func (s *AuthService) GetProfile(ctx context.Context, user *models.User) (*Profile, error) {
	attempts, err := s.attempts.ListRecentByUsername(ctx, user.Username, 10)
	if err != nil {
		s.logger.Error("failed to list login attempts", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	sessions, err := s.sessions.ListActiveByUser(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to list sessions", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &Profile{User: user, RecentAttempts: attempts, ActiveSessions: sessions}, nil
}

// UpdateProfile updates the caller-editable fields, keeping email unique.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input *ProfileInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing.ID != userID {
		return nil, fmt.Errorf("email address is already in use: %w", models.ErrConflict)
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return s.users.UpdateProfile(ctx, userID, &models.User{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     email,
		Phone:     strings.TrimSpace(input.Phone),
	})
}

// SetupTwoFactor generates and stores a new TOTP secret, disabled until the
// user confirms a code via EnableTwoFactor.
func (s *AuthService) SetupTwoFactor(ctx context.Context, user *models.User) (secret, qrDataURL string, err error) {
	secret, qrDataURL, err = s.totp.GenerateSecret(user.Username)
	if err != nil {
		s.logger.Error("failed to generate totp secret", slog.String("user_id", user.ID), slog.Any("error", err))
		return "", "", models.ErrInternalServer
	}

	if err := s.users.SetTwoFactor(ctx, user.ID, false, secret); err != nil {
		return "", "", err
	}
	return secret, qrDataURL, nil
}

// EnableTwoFactor turns on the second factor after the user proves they can
// produce a valid code from the stored secret.
func (s *AuthService) EnableTwoFactor(ctx context.Context, user *models.User, code string) error {
	if user.TwoFactorSecret == "" {
		return models.ErrBadRequest
	}
	if !s.totp.Validate(user.TwoFactorSecret, code) {
		return models.ErrInvalidTwoFactor
	}

	if err := s.users.SetTwoFactor(ctx, user.ID, true, user.TwoFactorSecret); err != nil {
		return err
	}

	s.logger.Info("two-factor enabled", slog.String("user_id", user.ID))
	return nil
}

// DisableTwoFactor requires a password re-check, then clears the secret.
func (s *AuthService) DisableTwoFactor(ctx context.Context, user *models.User, password string) error {
	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		return models.ErrInvalidCredentials
	}

	if err := s.users.SetTwoFactor(ctx, user.ID, false, ""); err != nil {
		return err
	}

	s.logger.Info("two-factor disabled", slog.String("user_id", user.ID))
	return nil
}
