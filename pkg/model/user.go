package model

import "strings"

// UserRole is the permission string derived from an auth record.
type UserRole string

const (
	// RoleUser is the baseline role for records without a role field.
	RoleUser UserRole = "user"
	// RoleAdmin has elevated permissions.
	RoleAdmin UserRole = "admin"
)

// RoleOf returns the record's "role" field, or RoleUser when it is absent
// or empty.
func RoleOf(r Record) UserRole {
	if role := strings.TrimSpace(r.String("role")); role != "" {
		return UserRole(role)
	}
	return RoleUser
}

// Identity is the profile view of the current auth record.
type Identity struct {
	ID       any    `json:"id"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar,omitempty"`
}

// DisplayName returns the first non-empty of name, username and email.
func DisplayName(r Record) string {
	for _, field := range []string{"name", "username", "email"} {
		if v := r.String(field); v != "" {
			return v
		}
	}
	return ""
}
