package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the roles carried in bearer tokens.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleLibrary   UserRole = "LIBRARY"
	RoleBursar    UserRole = "BURSAR"
	RoleAcademic  UserRole = "ACADEMIC"
	RoleProcessor UserRole = "PROCESSOR"
	RoleStudent   UserRole = "STUDENT"
)

// StaffRoles lists roles allowed to browse every request.
var StaffRoles = []UserRole{RoleAdmin, RoleLibrary, RoleBursar, RoleAcademic, RoleProcessor}

// IsStaff reports whether the role belongs to a reviewing or processing office.
func (r UserRole) IsStaff() bool {
	for _, role := range StaffRoles {
		if r == role {
			return true
		}
	}
	return false
}

// CanReview reports whether the role may record a verdict for the department.
func (r UserRole) CanReview(dept Department) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleLibrary:
		return dept == DepartmentLibrary
	case RoleBursar:
		return dept == DepartmentBursar
	case RoleAcademic:
		return dept == DepartmentAcademic
	default:
		return false
	}
}

// JWTClaims represents the bearer token payload issued by the identity provider.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	FullName  string   `json:"full_name"`
	StudentID string   `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}
