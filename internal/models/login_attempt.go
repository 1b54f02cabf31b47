package models

import "time"

// Login attempt failure reasons recorded in the attempt log.
const (
	FailureUnknownUser   = "user does not exist"
	FailureAccountLocked = "account locked"
	FailureBadPassword   = "invalid credentials"
	FailureBadTwoFactor  = "invalid two-factor code"
)

// LoginAttempt is an immutable audit record of a single login request.
// Username is denormalized on purpose: attempts against unknown or since-renamed
// usernames remain valid history.
type LoginAttempt struct {
	ID            string
	Username      string
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason *string
	AttemptTime   time.Time
}
