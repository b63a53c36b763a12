package model

// Student is reference data owned by the student records module.
type Student struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
	CourseID   int64  `json:"course_id"`
	Semester   int    `json:"semester"`
	Batch      string `json:"batch"`
	IsActive   bool   `json:"is_active"`
}
