package models

import "time"

// Class represents a year-level class within a department.
type Class struct {
	ID             string    `db:"id" json:"id"`
	DepartmentID   string    `db:"department_id" json:"department_id"`
	Year           int       `db:"year" json:"year"`
	Name           string    `db:"name" json:"name"`
	ClassTeacherID *string   `db:"class_teacher_id" json:"class_teacher_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with resolved names for responses.
type ClassDetail struct {
	Class
	DepartmentName   string  `db:"department_name" json:"department_name"`
	ClassTeacherName *string `db:"class_teacher_name" json:"class_teacher_name,omitempty"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	DepartmentID string
	Year         int
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// Batch partitions a class's students by roll-number range for
// practical-subject scoping.
type Batch struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Name      string    `db:"name" json:"name"`
	RollStart int       `db:"roll_start" json:"roll_start"`
	RollEnd   int       `db:"roll_end" json:"roll_end"`
	FacultyID string    `db:"faculty_id" json:"faculty_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BatchDetail extends Batch with resolved faculty info.
type BatchDetail struct {
	Batch
	FacultyName *string `db:"faculty_name" json:"faculty_name,omitempty"`
	ClassName   string  `db:"class_name" json:"class_name"`
}
