package model

import (
	"fmt"
	"strconv"
	"strings"
)

type ScopeKind string

const (
	ScopeKindLecture ScopeKind = "lecture"
	ScopeKindExam    ScopeKind = "exam"
)

// Scope is the entity an attendance token or claim session is bound to:
// a lecture, or an (exam, subject) pair optionally narrowed to one student.
type Scope struct {
	Kind      ScopeKind `json:"kind"`
	LectureID int64     `json:"lecture_id,omitempty"`
	ExamID    int64     `json:"exam_id,omitempty"`
	SubjectID int64     `json:"subject_id,omitempty"`
	StudentID *int64    `json:"student_id,omitempty"` // only for pre-issued exam tokens
}

func LectureScope(lectureID int64) Scope {
	return Scope{Kind: ScopeKindLecture, LectureID: lectureID}
}

func ExamScope(examID, subjectID int64) Scope {
	return Scope{Kind: ScopeKindExam, ExamID: examID, SubjectID: subjectID}
}

// ForStudent returns a copy of an exam scope bound to one student.
func (s Scope) ForStudent(studentID int64) Scope {
	s.StudentID = &studentID
	return s
}

// Key is the canonical storage key. Uniqueness constraints on tokens and
// attendance rows are declared over it.
func (s Scope) Key() string {
	switch s.Kind {
	case ScopeKindLecture:
		return fmt.Sprintf("lecture:%d", s.LectureID)
	case ScopeKindExam:
		if s.StudentID != nil {
			return fmt.Sprintf("exam:%d:%d:%d", s.ExamID, s.SubjectID, *s.StudentID)
		}
		return fmt.Sprintf("exam:%d:%d", s.ExamID, s.SubjectID)
	default:
		return ""
	}
}

// AttendanceKey is the key attendance rows are stored under. The student part
// of a per-student exam scope is dropped so that one (exam, subject, student)
// triple maps to one row no matter which token was used.
func (s Scope) AttendanceKey() string {
	s.StudentID = nil
	return s.Key()
}

func (s Scope) IsLecture() bool {
	return s.Kind == ScopeKindLecture
}

func (s Scope) IsExam() bool {
	return s.Kind == ScopeKindExam
}

func (s Scope) String() string {
	return s.Key()
}

// ParseScopeKey reverses Key.
func ParseScopeKey(key string) (Scope, error) {
	parts := strings.Split(key, ":")
	ids := make([]int64, 0, len(parts)-1)
	for _, p := range parts[1:] {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			return Scope{}, fmt.Errorf("invalid scope key %q", key)
		}
		ids = append(ids, id)
	}

	switch {
	case parts[0] == string(ScopeKindLecture) && len(ids) == 1:
		return LectureScope(ids[0]), nil
	case parts[0] == string(ScopeKindExam) && len(ids) == 2:
		return ExamScope(ids[0], ids[1]), nil
	case parts[0] == string(ScopeKindExam) && len(ids) == 3:
		return ExamScope(ids[0], ids[1]).ForStudent(ids[2]), nil
	default:
		return Scope{}, fmt.Errorf("invalid scope key %q", key)
	}
}
