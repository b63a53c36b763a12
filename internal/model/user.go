package model

type Role string

const (
	RoleStudent     Role = "student"
	RoleTutor       Role = "tutor"
	RoleCourseAdmin Role = "course_admin"
	RoleSuperAdmin  Role = "super_admin"
)

func (r Role) IsPresenter() bool {
	return r == RoleTutor || r == RoleCourseAdmin || r == RoleSuperAdmin
}

func (r Role) IsAdmin() bool {
	return r == RoleCourseAdmin || r == RoleSuperAdmin
}

// Identity is the authenticated caller of a request.
type Identity struct {
	ID   int64  `json:"id"`
	Role Role   `json:"role"`
	Name string `json:"name"`
}
