package service

import (
	"context"
	"time"

	"github.com/samanvay/attendance_service/internal/model"
)

type TokenStore interface {
	Create(ctx context.Context, token *model.AttendanceToken) error
	GetByToken(ctx context.Context, token string) (*model.AttendanceToken, error)
	GetActiveByScope(ctx context.Context, scope model.Scope) (*model.AttendanceToken, error)
	Rotate(ctx context.Context, token *model.AttendanceToken) error
	DeactivateScope(ctx context.Context, scope model.Scope, at time.Time) (int64, error)
	IssueBatch(ctx context.Context, tokens []*model.AttendanceToken) error
	DeleteInactiveBefore(ctx context.Context, before time.Time) (int64, error)
}

type ClaimSessionStore interface {
	Create(ctx context.Context, session *model.ClaimSession) error
	GetByID(ctx context.Context, sessionID string) (*model.ClaimSession, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type AttendanceStore interface {
	Insert(ctx context.Context, record *model.AttendanceRecord) (bool, error)
	ListByScope(ctx context.Context, scope model.Scope) ([]*model.AttendanceRecord, error)
	CountByScope(ctx context.Context, scope model.Scope) (int, error)
}

type StudentStore interface {
	GetByID(ctx context.Context, id int64) (*model.Student, error)
	ListByAudience(ctx context.Context, courseID int64, semester int, batch string) ([]*model.Student, error)
	CountByAudience(ctx context.Context, courseID int64, semester int, batch string) (int, error)
}

type LectureStore interface {
	GetByID(ctx context.Context, id int64) (*model.Lecture, error)
}

type ExamStore interface {
	GetByID(ctx context.Context, id int64) (*model.Exam, error)
	HasSubject(ctx context.Context, examID, subjectID int64) (bool, error)
}

// Notifier delivers close summaries to presenters.
type Notifier interface {
	NotifyScopeClosed(ctx context.Context, summary *model.ScopeSummary) error
}

// Clock returns the current server time.
type Clock func() time.Time
