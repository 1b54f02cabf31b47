package services

import (
	"testing"
	"time"

	"github.com/apvaldes/healthcenter/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestLockoutPolicy_IsLocked(t *testing.T) {
	policy := LockoutPolicy{Threshold: 5, LockDuration: 30 * time.Minute}
	now := time.Now().UTC()

	unlocked := &models.User{}
	assert.False(t, policy.IsLocked(unlocked, now))

	future := now.Add(10 * time.Minute)
	locked := &models.User{LockedUntil: &future}
	assert.True(t, policy.IsLocked(locked, now))

	// A lock expiring exactly at now no longer holds.
	boundary := now
	atBoundary := &models.User{LockedUntil: &boundary}
	assert.False(t, policy.IsLocked(atBoundary, now))

	past := now.Add(-1 * time.Second)
	expired := &models.User{LockedUntil: &past}
	assert.False(t, policy.IsLocked(expired, now))
}

func TestLockoutPolicy_HasExpiredLock(t *testing.T) {
	policy := LockoutPolicy{Threshold: 5, LockDuration: 30 * time.Minute}
	now := time.Now().UTC()

	assert.False(t, policy.HasExpiredLock(&models.User{}, now))

	past := now.Add(-1 * time.Second)
	assert.True(t, policy.HasExpiredLock(&models.User{LockedUntil: &past}, now))

	boundary := now
	assert.True(t, policy.HasExpiredLock(&models.User{LockedUntil: &boundary}, now))

	future := now.Add(1 * time.Minute)
	assert.False(t, policy.HasExpiredLock(&models.User{LockedUntil: &future}, now))
}

func TestLockoutPolicy_Remaining(t *testing.T) {
	policy := LockoutPolicy{Threshold: 5}

	assert.Equal(t, 5, policy.Remaining(0))
	assert.Equal(t, 1, policy.Remaining(4))
	assert.Equal(t, 0, policy.Remaining(5))
	assert.Equal(t, 0, policy.Remaining(9))
}
