package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samanvay/attendance_service/internal/model"
)

var errDuplicateActive = errors.New("duplicate active token for scope")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeTokenStore mirrors the partial unique index on active scope keys.
type fakeTokenStore struct {
	mu     sync.Mutex
	nextID int64
	rows   []*model.AttendanceToken
}

func (f *fakeTokenStore) insertLocked(token *model.AttendanceToken) error {
	for _, row := range f.rows {
		if row.Active && row.Scope.Key() == token.Scope.Key() {
			return errDuplicateActive
		}
	}
	f.nextID++
	token.ID = f.nextID
	token.Active = true
	stored := *token
	f.rows = append(f.rows, &stored)
	return nil
}

func (f *fakeTokenStore) Create(_ context.Context, token *model.AttendanceToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertLocked(token)
}

func (f *fakeTokenStore) GetByToken(_ context.Context, token string) (*model.AttendanceToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.Token == token {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeTokenStore) GetActiveByScope(_ context.Context, scope model.Scope) (*model.AttendanceToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.Active && row.Scope.Key() == scope.Key() {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeTokenStore) Rotate(_ context.Context, token *model.AttendanceToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.Active && row.Scope.Key() == token.Scope.Key() {
			at := token.CreatedAt
			row.Active = false
			row.DeactivatedAt = &at
		}
	}
	return f.insertLocked(token)
}

func (f *fakeTokenStore) DeactivateScope(_ context.Context, scope model.Scope, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := scope.Key()
	var n int64
	for _, row := range f.rows {
		k := row.Scope.Key()
		if row.Active && (k == key || strings.HasPrefix(k, key+":")) {
			row.Active = false
			row.DeactivatedAt = &at
			n++
		}
	}
	return n, nil
}

func (f *fakeTokenStore) IssueBatch(_ context.Context, tokens []*model.AttendanceToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range tokens {
		if err := f.insertLocked(t); err == nil {
			continue
		}
		for _, row := range f.rows {
			if row.Active && row.Scope.Key() == t.Scope.Key() {
				copied := *row
				tokens[i] = &copied
			}
		}
	}
	return nil
}

func (f *fakeTokenStore) DeleteInactiveBefore(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	var n int64
	for _, row := range f.rows {
		if !row.Active && row.DeactivatedAt != nil && row.DeactivatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	f.rows = kept
	return n, nil
}

func (f *fakeTokenStore) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakeTokenStore) activeCount(scope model.Scope) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, row := range f.rows {
		if row.Active && row.Scope.Key() == scope.Key() {
			n++
		}
	}
	return n
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.ClaimSession
	failNext error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*model.ClaimSession)}
}

func (f *fakeSessionStore) Create(_ context.Context, session *model.ClaimSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	copied := *session
	f.sessions[session.SessionID] = &copied
	return nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, sessionID string) (*model.ClaimSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessionStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.sessions {
		if s.ExpiresAt.Before(now) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionStore) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// fakeAttendanceStore mirrors the unique (scope_key, student_id) constraint.
type fakeAttendanceStore struct {
	mu       sync.Mutex
	nextID   int64
	rows     map[string]*model.AttendanceRecord
	countErr error
}

func newFakeAttendanceStore() *fakeAttendanceStore {
	return &fakeAttendanceStore{rows: make(map[string]*model.AttendanceRecord)}
}

func attendanceRowKey(scope model.Scope, studentID int64) string {
	return fmt.Sprintf("%s#%d", scope.AttendanceKey(), studentID)
}

func (f *fakeAttendanceStore) Insert(_ context.Context, record *model.AttendanceRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := attendanceRowKey(record.Scope, record.StudentID)
	if _, ok := f.rows[key]; ok {
		return false, nil
	}
	f.nextID++
	record.ID = f.nextID
	copied := *record
	f.rows[key] = &copied
	return true, nil
}

func (f *fakeAttendanceStore) ListByScope(_ context.Context, scope model.Scope) ([]*model.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.AttendanceRecord
	for _, r := range f.rows {
		if r.Scope.AttendanceKey() == scope.AttendanceKey() {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeAttendanceStore) CountByScope(ctx context.Context, scope model.Scope) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	rows, _ := f.ListByScope(ctx, scope)
	return len(rows), nil
}

type fakeStudentStore struct {
	students map[int64]*model.Student
}

func (f *fakeStudentStore) GetByID(_ context.Context, id int64) (*model.Student, error) {
	return f.students[id], nil
}

func (f *fakeStudentStore) ListByAudience(_ context.Context, courseID int64, semester int, batch string) ([]*model.Student, error) {
	var out []*model.Student
	for _, s := range f.students {
		if !s.IsActive || s.CourseID != courseID || s.Semester != semester {
			continue
		}
		if batch != "" && s.Batch != batch {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStudentStore) CountByAudience(ctx context.Context, courseID int64, semester int, batch string) (int, error) {
	out, _ := f.ListByAudience(ctx, courseID, semester, batch)
	return len(out), nil
}

type fakeLectureStore struct {
	lectures map[int64]*model.Lecture
}

func (f *fakeLectureStore) GetByID(_ context.Context, id int64) (*model.Lecture, error) {
	return f.lectures[id], nil
}

type fakeExamStore struct {
	exams    map[int64]*model.Exam
	subjects map[int64][]int64
}

func (f *fakeExamStore) GetByID(_ context.Context, id int64) (*model.Exam, error) {
	return f.exams[id], nil
}

func (f *fakeExamStore) HasSubject(_ context.Context, examID, subjectID int64) (bool, error) {
	for _, s := range f.subjects[examID] {
		if s == subjectID {
			return true, nil
		}
	}
	return false, nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	summaries []*model.ScopeSummary
	err       error
}

func (f *fakeNotifier) NotifyScopeClosed(_ context.Context, summary *model.ScopeSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, summary)
	return f.err
}
