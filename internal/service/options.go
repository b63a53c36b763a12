package service

import "time"

const (
	DefaultLectureTokenTTL = 6 * time.Second
	DefaultClaimSessionTTL = 20 * time.Second
	DefaultTokenRetention  = 24 * time.Hour
)

// Options carries the time windows of the attendance flow.
type Options struct {
	// LectureTokenTTL bounds the age of a lecture QR token. Exam tokens are
	// not aged.
	LectureTokenTTL time.Duration
	ClaimSessionTTL time.Duration
	// TokenRetention is how long deactivated tokens are kept before pruning.
	TokenRetention time.Duration
	Clock          Clock
}

func (o Options) withDefaults() Options {
	if o.LectureTokenTTL <= 0 {
		o.LectureTokenTTL = DefaultLectureTokenTTL
	}
	if o.ClaimSessionTTL <= 0 {
		o.ClaimSessionTTL = DefaultClaimSessionTTL
	}
	if o.TokenRetention <= 0 {
		o.TokenRetention = DefaultTokenRetention
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}
