// Package auth resolves login credentials against the school's account
// sheet.
package auth

import "errors"

var ErrInvalidCredentials = errors.New("invalid username or password")

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
)

// User is the authenticated identity held for the length of a login.
type User struct {
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	FullName  string `json:"full_name"`
	TeacherID string `json:"teacher_id,omitempty"` // who receives this student's results
	Admin     bool   `json:"admin,omitempty"`
}

// PermissionRole is the rbac role name for u.
func (u User) PermissionRole() string {
	switch {
	case u.Admin:
		return "admin"
	case u.Role == RoleTeacher:
		return "teacher"
	}
	return "student"
}

// Account is a directory row: a user plus the password it logs in with.
type Account struct {
	User
	Password string `json:"-"`
}
