package service

import (
	"context"
	"fmt"
	"time"

	"github.com/samanvay/attendance_service/internal/model"
	"go.uber.org/zap"
)

// notifyTimeout bounds the close summary delivery.
const notifyTimeout = 5 * time.Second

// TokenService owns the token store: validation of scanned codes and the
// lifecycle (rotate, close, pre-issue) driven by presenters.
type TokenService struct {
	tokens     TokenStore
	attendance AttendanceStore
	students   StudentStore
	lectures   LectureStore
	exams      ExamStore
	notifier   Notifier
	opts       Options
	logger     *zap.Logger
}

func NewTokenService(
	tokens TokenStore,
	attendance AttendanceStore,
	students StudentStore,
	lectures LectureStore,
	exams ExamStore,
	notifier Notifier,
	opts Options,
	logger *zap.Logger,
) *TokenService {
	return &TokenService{
		tokens:     tokens,
		attendance: attendance,
		students:   students,
		lectures:   lectures,
		exams:      exams,
		notifier:   notifier,
		opts:       opts.withDefaults(),
		logger:     logger,
	}
}

// LectureTokenTTL is the freshness window applied to lecture tokens.
func (s *TokenService) LectureTokenTTL() time.Duration {
	return s.opts.LectureTokenTTL
}

// ============ Freshness gate ============

// Validate resolves a scanned token to its scope. It fails with ErrNotFound
// for unknown tokens, ErrClosed for deactivated ones and ErrExpired for
// lecture tokens older than the TTL. It has no side effects.
func (s *TokenService) Validate(ctx context.Context, token string) (*model.Scope, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	t, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	if t == nil {
		return nil, ErrNotFound
	}

	if !t.Active {
		return nil, ErrClosed
	}

	if t.Scope.IsLecture() && !t.IsFresh(s.opts.Clock(), s.opts.LectureTokenTTL) {
		return nil, ErrExpired
	}

	scope := t.Scope
	return &scope, nil
}

// ensureOpen fails with ErrClosed once the scope has no active token. A
// rotation leaves the scope open because the next token is already active.
func (s *TokenService) ensureOpen(ctx context.Context, scope model.Scope) error {
	t, err := s.tokens.GetActiveByScope(ctx, scope)
	if err != nil {
		return fmt.Errorf("get active token: %w", err)
	}
	if t == nil {
		return ErrClosed
	}
	return nil
}

// ============ Lifecycle ============

// AuthorizePresenter checks that the scope exists and that the caller may
// manage its attendance. Tutors manage their own lectures; admins manage
// everything; any presenter may invigilate an exam.
func (s *TokenService) AuthorizePresenter(ctx context.Context, presenter model.Identity, scope model.Scope) error {
	if !presenter.Role.IsPresenter() {
		return ErrNotPresenter
	}

	switch scope.Kind {
	case model.ScopeKindLecture:
		lecture, err := s.lectures.GetByID(ctx, scope.LectureID)
		if err != nil {
			return fmt.Errorf("get lecture: %w", err)
		}
		if lecture == nil {
			return ErrUnknownScope
		}
		if !presenter.Role.IsAdmin() && lecture.TutorID != presenter.ID {
			return ErrNotPresenter
		}
		return nil

	case model.ScopeKindExam:
		_, err := s.examSubject(ctx, scope)
		return err

	default:
		return ErrInvalidScope
	}
}

// Rotate replaces the active token of a lecture with a fresh one. The old
// token stops validating as soon as this returns.
func (s *TokenService) Rotate(ctx context.Context, scope model.Scope) (*model.AttendanceToken, error) {
	if !scope.IsLecture() {
		return nil, ErrInvalidScope
	}

	value, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	token := &model.AttendanceToken{
		Token:     value,
		Scope:     scope,
		CreatedAt: s.opts.Clock(),
	}

	if err := s.tokens.Rotate(ctx, token); err != nil {
		return nil, fmt.Errorf("rotate token: %w", err)
	}

	s.logger.Debug("Attendance token rotated",
		zap.String("scope", scope.Key()),
		zap.Int64("token_id", token.ID),
	)

	return token, nil
}

// IssueExamTokens pre-issues one token per eligible student of the exam
// subject. Students that already hold an active token keep it.
func (s *TokenService) IssueExamTokens(ctx context.Context, examID, subjectID int64) ([]*model.AttendanceToken, error) {
	scope := model.ExamScope(examID, subjectID)

	exam, err := s.examSubject(ctx, scope)
	if err != nil {
		return nil, err
	}

	students, err := s.students.ListByAudience(ctx, exam.CourseID, exam.Semester, "")
	if err != nil {
		return nil, fmt.Errorf("list eligible students: %w", err)
	}

	if len(students) == 0 {
		return []*model.AttendanceToken{}, nil
	}

	now := s.opts.Clock()
	tokens := make([]*model.AttendanceToken, 0, len(students))
	for _, student := range students {
		value, err := generateToken()
		if err != nil {
			return nil, fmt.Errorf("generate token: %w", err)
		}
		tokens = append(tokens, &model.AttendanceToken{
			Token:     value,
			Scope:     scope.ForStudent(student.ID),
			CreatedAt: now,
		})
	}

	if err := s.tokens.IssueBatch(ctx, tokens); err != nil {
		return nil, fmt.Errorf("issue exam tokens: %w", err)
	}

	s.logger.Info("Exam tokens issued",
		zap.String("scope", scope.Key()),
		zap.Int("count", len(tokens)),
	)

	return tokens, nil
}

// ActiveToken returns the token currently valid for an exact scope, or
// ErrNotFound when none is active.
func (s *TokenService) ActiveToken(ctx context.Context, scope model.Scope) (*model.AttendanceToken, error) {
	token, err := s.tokens.GetActiveByScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("get active token: %w", err)
	}
	if token == nil {
		return nil, ErrNotFound
	}
	return token, nil
}

// Close deactivates every token of the scope so that no further claims
// succeed, even from a stale QR image. The presenter gets a summary; a
// failed notification is logged and does not fail the close. When the
// counts cannot be read the summary carries only the close itself and no
// notification is sent.
func (s *TokenService) Close(ctx context.Context, scope model.Scope, closedBy string) (*model.ScopeSummary, error) {
	now := s.opts.Clock()

	closed, err := s.tokens.DeactivateScope(ctx, scope, now)
	if err != nil {
		return nil, fmt.Errorf("deactivate scope: %w", err)
	}

	summary, err := s.summarize(ctx, scope)
	if err != nil {
		// The tokens are already closed; report that without the counts.
		s.logger.Error("Failed to summarize closed scope",
			zap.String("scope", scope.Key()),
			zap.Error(err),
		)
		return &model.ScopeSummary{
			Scope:    scope,
			Closed:   closed,
			ClosedAt: now,
			ClosedBy: closedBy,
		}, nil
	}
	summary.Closed = closed
	summary.ClosedAt = now
	summary.ClosedBy = closedBy

	s.logger.Info("Attendance closed",
		zap.String("scope", scope.Key()),
		zap.Int64("tokens", closed),
		zap.Int("present", summary.Present),
		zap.Int("eligible", summary.Eligible),
	)

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := s.notifier.NotifyScopeClosed(notifyCtx, summary); err != nil {
		s.logger.Warn("Failed to deliver close summary",
			zap.String("scope", scope.Key()),
			zap.Error(err),
		)
	}

	return summary, nil
}

// PruneInactive deletes tokens deactivated longer ago than the retention.
// Validation of a pruned token then fails with ErrNotFound instead of
// ErrClosed, which the client treats the same way.
func (s *TokenService) PruneInactive(ctx context.Context) (int64, error) {
	deleted, err := s.tokens.DeleteInactiveBefore(ctx, s.opts.Clock().Add(-s.opts.TokenRetention))
	if err != nil {
		return 0, fmt.Errorf("prune attendance tokens: %w", err)
	}
	return deleted, nil
}

func (s *TokenService) summarize(ctx context.Context, scope model.Scope) (*model.ScopeSummary, error) {
	summary := &model.ScopeSummary{Scope: scope}

	present, err := s.attendance.CountByScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("count attendance: %w", err)
	}
	summary.Present = present

	var (
		courseID int64
		semester int
		batch    string
	)

	switch scope.Kind {
	case model.ScopeKindLecture:
		lecture, err := s.lectures.GetByID(ctx, scope.LectureID)
		if err != nil {
			return nil, fmt.Errorf("get lecture: %w", err)
		}
		if lecture == nil {
			return summary, nil
		}
		courseID, semester, batch = lecture.CourseID, lecture.Semester, lecture.Batch
		summary.Title = fmt.Sprintf("Lecture #%d", lecture.ID)
		if lecture.Batch != "" {
			summary.Title += " (batch " + lecture.Batch + ")"
		}

	case model.ScopeKindExam:
		exam, err := s.exams.GetByID(ctx, scope.ExamID)
		if err != nil {
			return nil, fmt.Errorf("get exam: %w", err)
		}
		if exam == nil {
			return summary, nil
		}
		courseID, semester = exam.CourseID, exam.Semester
		summary.Title = fmt.Sprintf("%s, subject #%d", exam.Name, scope.SubjectID)
	}

	eligible, err := s.students.CountByAudience(ctx, courseID, semester, batch)
	if err != nil {
		return nil, fmt.Errorf("count eligible students: %w", err)
	}
	summary.Eligible = eligible

	return summary, nil
}

func (s *TokenService) examSubject(ctx context.Context, scope model.Scope) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, scope.ExamID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam == nil {
		return nil, ErrUnknownScope
	}

	ok, err := s.exams.HasSubject(ctx, scope.ExamID, scope.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("check exam subject: %w", err)
	}
	if !ok {
		return nil, ErrUnknownScope
	}

	return exam, nil
}
