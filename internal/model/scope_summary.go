package model

import "time"

// ScopeSummary is reported to the presenter when attendance for a scope closes.
type ScopeSummary struct {
	Scope    Scope     `json:"scope"`
	Title    string    `json:"title"`
	Present  int       `json:"present"`
	Eligible int       `json:"eligible"`
	Closed   int64     `json:"closed_tokens"`
	ClosedAt time.Time `json:"closed_at"`
	ClosedBy string    `json:"closed_by,omitempty"`
}

func (s *ScopeSummary) Absent() int {
	if s.Eligible < s.Present {
		return 0
	}
	return s.Eligible - s.Present
}
