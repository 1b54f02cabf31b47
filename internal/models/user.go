package models

import (
	"time"
)

// Role values assignable to a user. Staff and admins may manage CMS content.
const (
	RoleMember = "member"
	RoleStaff  = "staff"
	RoleAdmin  = "admin"
)

type User struct {
	ID                    string
	Username              string
	Email                 string
	PasswordHash          string
	FirstName             string
	LastName              string
	Phone                 string
	Role                  string // "member", "staff", "admin"
	FailedLoginAttempts   int
	LockedUntil           *time.Time // Temporary account lock expiration
	PasswordChangedAt     time.Time
	RequirePasswordChange bool // Force password change on next login
	TwoFactorEnabled      bool
	TwoFactorSecret       string // Base32 TOTP secret, empty unless enrolled
	LastLoginIP           string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// FullName returns the display name, falling back to the username.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// PasswordAge returns how long ago the password was last changed.
func (u *User) PasswordAge(now time.Time) time.Duration {
	if u.PasswordChangedAt.IsZero() {
		return 0
	}
	return now.Sub(u.PasswordChangedAt)
}
