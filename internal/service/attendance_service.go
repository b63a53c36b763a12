package service

import (
	"context"
	"fmt"

	"github.com/samanvay/attendance_service/internal/model"
	"go.uber.org/zap"
)

type RecordStatus string

const (
	RecordStatusRecorded        RecordStatus = "recorded"
	RecordStatusAlreadyRecorded RecordStatus = "already_recorded"
)

// RecordResult is the outcome of a record attempt that passed validation.
// A duplicate is a benign result, not an error.
type RecordResult struct {
	Status      RecordStatus            `json:"status"`
	StudentName string                  `json:"student_name"`
	Record      *model.AttendanceRecord `json:"record,omitempty"`
}

func (r *RecordResult) IsDuplicate() bool {
	return r.Status == RecordStatusAlreadyRecorded
}

// AttendanceService turns valid claims into attendance rows.
type AttendanceService struct {
	tokens     *TokenService
	sessions   ClaimSessionStore
	attendance AttendanceStore
	students   StudentStore
	lectures   LectureStore
	exams      ExamStore
	opts       Options
	logger     *zap.Logger
}

func NewAttendanceService(
	tokens *TokenService,
	sessions ClaimSessionStore,
	attendance AttendanceStore,
	students StudentStore,
	lectures LectureStore,
	exams ExamStore,
	opts Options,
	logger *zap.Logger,
) *AttendanceService {
	return &AttendanceService{
		tokens:     tokens,
		sessions:   sessions,
		attendance: attendance,
		students:   students,
		lectures:   lectures,
		exams:      exams,
		opts:       opts.withDefaults(),
		logger:     logger,
	}
}

// Record marks the student present for the scope of a claim session.
// Missing or expired sessions fail with ErrExpired, sessions whose scope was
// closed after the claim with ErrClosed and students outside the scope with
// ErrForbidden; in all cases no row is written.
func (s *AttendanceService) Record(ctx context.Context, sessionID string, studentID int64) (*RecordResult, error) {
	if sessionID == "" {
		return nil, ErrExpired
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get claim session: %w", err)
	}

	if session == nil || session.IsExpired(s.opts.Clock()) {
		return nil, ErrExpired
	}

	if err := s.tokens.ensureOpen(ctx, session.Scope); err != nil {
		return nil, err
	}

	return s.record(ctx, session.Scope, studentID)
}

// RecordLectureScan is the one-step flow: the scanned token is checked
// against the lecture and the attendance written in the same request.
func (s *AttendanceService) RecordLectureScan(ctx context.Context, lectureID int64, token string, studentID int64) (*RecordResult, error) {
	scope, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	if !scope.IsLecture() || scope.LectureID != lectureID {
		return nil, ErrNotFound
	}

	return s.record(ctx, *scope, studentID)
}

// RecordExamScan is the invigilator flow: the student shows the pre-issued
// code and the presenter scans it for the exam subject in the path.
// Attendance is written for the student the token was issued to.
func (s *AttendanceService) RecordExamScan(ctx context.Context, subject model.Scope, token string) (*RecordResult, error) {
	scope, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	if !scope.IsExam() || scope.StudentID == nil ||
		scope.ExamID != subject.ExamID || scope.SubjectID != subject.SubjectID {
		return nil, ErrNotFound
	}

	return s.record(ctx, *scope, *scope.StudentID)
}

// ListScope returns the attendance recorded so far for the scope.
func (s *AttendanceService) ListScope(ctx context.Context, scope model.Scope) ([]*model.AttendanceRecord, error) {
	records, err := s.attendance.ListByScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	if records == nil {
		records = []*model.AttendanceRecord{}
	}
	return records, nil
}

func (s *AttendanceService) record(ctx context.Context, scope model.Scope, studentID int64) (*RecordResult, error) {
	student, err := s.authorize(ctx, scope, studentID)
	if err != nil {
		return nil, err
	}

	record := &model.AttendanceRecord{
		Scope:     scope,
		StudentID: student.ID,
		Status:    model.AttendanceStatusPresent,
		CreatedAt: s.opts.Clock(),
	}

	inserted, err := s.attendance.Insert(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("insert attendance: %w", err)
	}

	if !inserted {
		return &RecordResult{
			Status:      RecordStatusAlreadyRecorded,
			StudentName: student.Name,
		}, nil
	}

	record.StudentName = student.Name
	record.RollNumber = student.RollNumber

	s.logger.Info("Attendance recorded",
		zap.String("scope", scope.AttendanceKey()),
		zap.Int64("student_id", student.ID),
	)

	return &RecordResult{
		Status:      RecordStatusRecorded,
		StudentName: student.Name,
		Record:      record,
	}, nil
}

// authorize checks that the student belongs to the audience of the scope.
func (s *AttendanceService) authorize(ctx context.Context, scope model.Scope, studentID int64) (*model.Student, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, ErrForbidden
	}

	switch scope.Kind {
	case model.ScopeKindLecture:
		lecture, err := s.lectures.GetByID(ctx, scope.LectureID)
		if err != nil {
			return nil, fmt.Errorf("get lecture: %w", err)
		}
		if lecture == nil || !lecture.Admits(student) {
			return nil, ErrForbidden
		}

	case model.ScopeKindExam:
		if scope.StudentID != nil && *scope.StudentID != student.ID {
			return nil, ErrForbidden
		}

		exam, err := s.exams.GetByID(ctx, scope.ExamID)
		if err != nil {
			return nil, fmt.Errorf("get exam: %w", err)
		}
		if exam == nil || !exam.Admits(student) {
			return nil, ErrForbidden
		}

		ok, err := s.exams.HasSubject(ctx, scope.ExamID, scope.SubjectID)
		if err != nil {
			return nil, fmt.Errorf("check exam subject: %w", err)
		}
		if !ok {
			return nil, ErrForbidden
		}

	default:
		return nil, ErrForbidden
	}

	return student, nil
}
