package services

import (
	"time"

	"github.com/apvaldes/healthcenter/internal/models"
)

// LockoutPolicy decides whether authentication may proceed given a user's
// failure count and lock expiry. Threshold and duration come from config so
// production tuning needs no code change.
type LockoutPolicy struct {
	Threshold    int
	LockDuration time.Duration
}

// IsLocked reports whether the account is locked at now. A lock that has
// already elapsed does not count; the caller is expected to clear it via
// the credential store's self-healing update.
func (p LockoutPolicy) IsLocked(user *models.User, now time.Time) bool {
	return user.LockedUntil != nil && now.Before(*user.LockedUntil)
}

// HasExpiredLock reports whether a lock is set but already elapsed.
func (p LockoutPolicy) HasExpiredLock(user *models.User, now time.Time) bool {
	return user.LockedUntil != nil && !now.Before(*user.LockedUntil)
}

// Remaining returns how many attempts are left before lockout given the
// current failure count. Never negative.
func (p LockoutPolicy) Remaining(failureCount int) int {
	remaining := p.Threshold - failureCount
	if remaining < 0 {
		return 0
	}
	return remaining
}
