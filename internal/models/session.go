package models

import "time"

// UserSession is one row per login session. Rows are soft-deactivated on logout
// or termination, never physically deleted.
type UserSession struct {
	ID           string
	UserID       string
	SessionKey   string // Unique opaque key, also the cookie value
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time
	LastActivity time.Time
	Active       bool
}
