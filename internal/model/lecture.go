package model

import "time"

// Lecture is reference data owned by the timetable module.
type Lecture struct {
	ID        int64     `json:"id"`
	CourseID  int64     `json:"course_id"`
	SubjectID int64     `json:"subject_id"`
	Semester  int       `json:"semester"`
	Batch     string    `json:"batch"` // empty = whole semester
	TutorID   int64     `json:"tutor_id"`
	StartsAt  time.Time `json:"starts_at"`
}

// Admits reports whether the student belongs to the lecture's audience.
func (l *Lecture) Admits(s *Student) bool {
	if s == nil || !s.IsActive {
		return false
	}
	if s.CourseID != l.CourseID || s.Semester != l.Semester {
		return false
	}
	return l.Batch == "" || l.Batch == s.Batch
}
