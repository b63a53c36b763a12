package model

import "time"

// Exam is reference data owned by the examination module.
type Exam struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	CourseID int64     `json:"course_id"`
	Semester int       `json:"semester"`
	StartsOn time.Time `json:"starts_on"`
}

func (e *Exam) Admits(s *Student) bool {
	if s == nil || !s.IsActive {
		return false
	}
	return s.CourseID == e.CourseID && s.Semester == e.Semester
}
