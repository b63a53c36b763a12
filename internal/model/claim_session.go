package model

import "time"

// ClaimSession is the short-lived capability granted after a token is claimed.
// The server-side row is the source of truth for expiry.
type ClaimSession struct {
	SessionID string    `json:"session_id"`
	Scope     Scope     `json:"scope"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *ClaimSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// TTL returns the window the session was issued with.
func (s *ClaimSession) TTL() time.Duration {
	return s.ExpiresAt.Sub(s.CreatedAt)
}
