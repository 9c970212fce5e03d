package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleDirector     UserRole = "DIRECTOR"
	RoleHOD          UserRole = "HOD"
	RoleClassTeacher UserRole = "CLASS_TEACHER"
	RoleFaculty      UserRole = "FACULTY"
	RoleStudent      UserRole = "STUDENT"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	DepartmentID *string    `db:"department_id" json:"department_id,omitempty"`
	ClassID      *string    `db:"class_id" json:"class_id,omitempty"`
	BatchID      *string    `db:"batch_id" json:"batch_id,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Actor is the authenticated-actor context threaded through every core
// operation instead of an ambient request object.
type Actor struct {
	ID           string   `json:"id"`
	Role         UserRole `json:"role"`
	ClassID      *string  `json:"class_id,omitempty"`
	DepartmentID *string  `json:"department_id,omitempty"`
	BatchID      *string  `json:"batch_id,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
