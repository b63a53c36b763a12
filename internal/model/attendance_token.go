package model

import "time"

// AttendanceToken is the opaque value rendered as a QR code.
type AttendanceToken struct {
	ID            int64      `json:"id"`
	Token         string     `json:"token"`
	Scope         Scope      `json:"scope"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	DeactivatedAt *time.Time `json:"deactivated_at"` // nil while active
}

// IsFresh reports whether the token is no older than ttl at now.
// A zero ttl disables the age check.
func (t *AttendanceToken) IsFresh(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return true
	}
	return now.Sub(t.CreatedAt) <= ttl
}

// ExpiresAt is the moment the token stops passing IsFresh.
func (t *AttendanceToken) ExpiresAt(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	at := t.CreatedAt.Add(ttl)
	return &at
}
