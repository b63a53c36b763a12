package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samanvay/attendance_service/internal/model"
	"github.com/samanvay/attendance_service/internal/repository/base"
)

type LectureRepository struct {
	*base.Repository
}

func NewLectureRepository(pool *pgxpool.Pool) *LectureRepository {
	return &LectureRepository{Repository: base.NewRepository(pool)}
}

func (r *LectureRepository) GetByID(ctx context.Context, id int64) (*model.Lecture, error) {
	query := `
		SELECT id, course_id, subject_id, semester, batch, tutor_id, starts_at
		FROM lectures
		WHERE id = $1
	`

	var l model.Lecture
	err := r.QueryRow(ctx, query, id).Scan(
		&l.ID,
		&l.CourseID,
		&l.SubjectID,
		&l.Semester,
		&l.Batch,
		&l.TutorID,
		&l.StartsAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lecture by id: %w", err)
	}

	return &l, nil
}
