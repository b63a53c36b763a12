package service

import (
	"testing"

	"github.com/samanvay/attendance_service/internal/model"
	"go.uber.org/zap/zaptest"
)

const (
	lectureBatchA  int64 = 100 // course 10, semester 3, batch A, tutor 7
	lectureAll     int64 = 101 // course 10, semester 3, every batch, tutor 8
	examMidterm    int64 = 200
	subjectMaths   int64 = 300
	subjectPhysics int64 = 301
)

type fixture struct {
	clock      *fakeClock
	tokens     *fakeTokenStore
	sessions   *fakeSessionStore
	attendance *fakeAttendanceStore
	students   *fakeStudentStore
	lectures   *fakeLectureStore
	exams      *fakeExamStore
	notifier   *fakeNotifier

	tokenSvc      *TokenService
	claimSvc      *ClaimService
	attendanceSvc *AttendanceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		clock:      newFakeClock(),
		tokens:     &fakeTokenStore{},
		sessions:   newFakeSessionStore(),
		attendance: newFakeAttendanceStore(),
		students: &fakeStudentStore{students: map[int64]*model.Student{
			1: {ID: 1, Name: "Asha Nair", RollNumber: "BCA301", CourseID: 10, Semester: 3, Batch: "A", IsActive: true},
			2: {ID: 2, Name: "Ravi Kumar", RollNumber: "BCA302", CourseID: 10, Semester: 3, Batch: "B", IsActive: true},
			3: {ID: 3, Name: "Meera Iyer", RollNumber: "BBA301", CourseID: 11, Semester: 3, Batch: "A", IsActive: true},
			4: {ID: 4, Name: "Dev Patel", RollNumber: "BCA304", CourseID: 10, Semester: 3, Batch: "A", IsActive: false},
			5: {ID: 5, Name: "Kiran Rao", RollNumber: "BCA305", CourseID: 10, Semester: 3, Batch: "A", IsActive: true},
		}},
		lectures: &fakeLectureStore{lectures: map[int64]*model.Lecture{
			lectureBatchA: {ID: lectureBatchA, CourseID: 10, SubjectID: subjectMaths, Semester: 3, Batch: "A", TutorID: 7},
			lectureAll:    {ID: lectureAll, CourseID: 10, SubjectID: subjectPhysics, Semester: 3, TutorID: 8},
		}},
		exams: &fakeExamStore{
			exams: map[int64]*model.Exam{
				examMidterm: {ID: examMidterm, Name: "Midterm", CourseID: 10, Semester: 3},
			},
			subjects: map[int64][]int64{
				examMidterm: {subjectMaths, subjectPhysics},
			},
		},
		notifier: &fakeNotifier{},
	}

	opts := Options{Clock: f.clock.Now}
	logger := zaptest.NewLogger(t)

	f.tokenSvc = NewTokenService(f.tokens, f.attendance, f.students, f.lectures, f.exams, f.notifier, opts, logger)
	f.claimSvc = NewClaimService(f.tokenSvc, f.sessions, opts, logger)
	f.attendanceSvc = NewAttendanceService(f.tokenSvc, f.sessions, f.attendance, f.students, f.lectures, f.exams, opts, logger)

	return f
}
