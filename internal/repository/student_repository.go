package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samanvay/attendance_service/internal/model"
	"github.com/samanvay/attendance_service/internal/repository/base"
)

type StudentRepository struct {
	*base.Repository
}

func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{Repository: base.NewRepository(pool)}
}

const studentColumns = `id, name, roll_number, course_id, semester, batch, is_active`

// GetByID returns nil, nil when the student does not exist.
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`

	var s model.Student
	err := r.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.Name,
		&s.RollNumber,
		&s.CourseID,
		&s.Semester,
		&s.Batch,
		&s.IsActive,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student by id: %w", err)
	}

	return &s, nil
}

// ListByAudience returns the active students of a course semester. An empty
// batch selects every batch.
func (r *StudentRepository) ListByAudience(ctx context.Context, courseID int64, semester int, batch string) ([]*model.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE course_id = $1 AND semester = $2 AND is_active
		  AND ($3 = '' OR batch = $3)
		ORDER BY roll_number ASC
	`

	rows, err := r.Query(ctx, query, courseID, semester, batch)
	if err != nil {
		return nil, fmt.Errorf("list students by audience: %w", err)
	}
	defer rows.Close()

	var students []*model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.RollNumber, &s.CourseID, &s.Semester, &s.Batch, &s.IsActive); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}

	return students, nil
}

func (r *StudentRepository) CountByAudience(ctx context.Context, courseID int64, semester int, batch string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM students
		WHERE course_id = $1 AND semester = $2 AND is_active
		  AND ($3 = '' OR batch = $3)
	`

	var count int
	if err := r.QueryRow(ctx, query, courseID, semester, batch).Scan(&count); err != nil {
		return 0, fmt.Errorf("count students by audience: %w", err)
	}
	return count, nil
}
