package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samanvay/attendance_service/internal/model"
	"github.com/samanvay/attendance_service/internal/repository/base"
)

type AttendanceRepository struct {
	*base.Repository
}

func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{Repository: base.NewRepository(pool)}
}

// Insert writes the record unless one already exists for (scope, student).
// It reports false without an error when the row was already there. The
// check and the write are one statement backed by the unique constraint.
func (r *AttendanceRepository) Insert(ctx context.Context, record *model.AttendanceRecord) (bool, error) {
	query := `
		INSERT INTO attendance_records (scope_key, student_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT uq_attendance_records_scope_student DO NOTHING
		RETURNING id
	`

	err := r.QueryRow(ctx, query,
		record.Scope.AttendanceKey(),
		record.StudentID,
		record.Status,
		record.CreatedAt,
	).Scan(&record.ID)
	if err != nil {
		if base.IsNotFound(err) {
			return false, nil
		}
		if base.IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert attendance record: %w", err)
	}

	return true, nil
}

// ListByScope returns the records of the scope with student names, oldest first.
func (r *AttendanceRepository) ListByScope(ctx context.Context, scope model.Scope) ([]*model.AttendanceRecord, error) {
	query := `
		SELECT a.id, a.student_id, a.status, a.created_at, COALESCE(s.name, ''), COALESCE(s.roll_number, '')
		FROM attendance_records a
		LEFT JOIN students s ON s.id = a.student_id
		WHERE a.scope_key = $1
		ORDER BY a.created_at ASC, a.id ASC
	`

	rows, err := r.Query(ctx, query, scope.AttendanceKey())
	if err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	defer rows.Close()

	var records []*model.AttendanceRecord
	for rows.Next() {
		record := model.AttendanceRecord{Scope: scope}
		err := rows.Scan(
			&record.ID,
			&record.StudentID,
			&record.Status,
			&record.CreatedAt,
			&record.StudentName,
			&record.RollNumber,
		)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}

	return records, nil
}

func (r *AttendanceRepository) CountByScope(ctx context.Context, scope model.Scope) (int, error) {
	var count int
	err := r.QueryRow(ctx, `SELECT COUNT(*) FROM attendance_records WHERE scope_key = $1`, scope.AttendanceKey()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count attendance records: %w", err)
	}
	return count, nil
}
