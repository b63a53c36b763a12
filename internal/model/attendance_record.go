package model

import "time"

type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
)

// AttendanceRecord is unique on (scope, student). Rows are never updated.
type AttendanceRecord struct {
	ID        int64            `json:"id"`
	Scope     Scope            `json:"scope"`
	StudentID int64            `json:"student_id"`
	Status    AttendanceStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`

	// Filled by listings, not stored on the row
	StudentName string `json:"student_name,omitempty"`
	RollNumber  string `json:"roll_number,omitempty"`
}
