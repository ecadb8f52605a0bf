package core

import "strings"

// Role prefixes, as carried by the tokens of the user service.
const (
	RoleAdmin   = "admin:"
	RoleTeacher = "teacher:"
	RoleStudent = "student:"
)

// IsStaffRole reports whether role is an admin or teacher role (e.g. "admin:principal").
func IsStaffRole(role string) bool {
	return strings.HasPrefix(role, RoleAdmin) || strings.HasPrefix(role, RoleTeacher)
}
