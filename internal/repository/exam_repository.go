package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samanvay/attendance_service/internal/model"
	"github.com/samanvay/attendance_service/internal/repository/base"
)

type ExamRepository struct {
	*base.Repository
}

func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{Repository: base.NewRepository(pool)}
}

func (r *ExamRepository) GetByID(ctx context.Context, id int64) (*model.Exam, error) {
	query := `
		SELECT id, name, course_id, semester, starts_on
		FROM exams
		WHERE id = $1
	`

	var e model.Exam
	err := r.QueryRow(ctx, query, id).Scan(&e.ID, &e.Name, &e.CourseID, &e.Semester, &e.StartsOn)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get exam by id: %w", err)
	}

	return &e, nil
}

// HasSubject reports whether the subject is part of the exam.
func (r *ExamRepository) HasSubject(ctx context.Context, examID, subjectID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM exam_subjects
			WHERE exam_id = $1 AND subject_id = $2
		)
	`

	var exists bool
	if err := r.QueryRow(ctx, query, examID, subjectID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check exam subject: %w", err)
	}

	return exists, nil
}
