package models

import (
	"time"

	"github.com/lib/pq"
)

// SubjectType classifies a subject. Elective types map to the categories a
// student selects rather than is assigned.
type SubjectType string

const (
	SubjectTheory    SubjectType = "theory"
	SubjectPractical SubjectType = "practical"
	SubjectMDM       SubjectType = "mdm"
	SubjectOE        SubjectType = "oe"
	SubjectPE        SubjectType = "pe"
)

// Subject represents an academic subject. Class-scoped subjects carry a
// class_id; department-level electives carry a department_id and are exposed
// through OfferedSubject rows.
type Subject struct {
	ID           string      `db:"id" json:"id"`
	Name         string      `db:"name" json:"name"`
	Code         string      `db:"code" json:"code"`
	Type         SubjectType `db:"type" json:"type"`
	ClassID      *string     `db:"class_id" json:"class_id,omitempty"`
	DepartmentID *string     `db:"department_id" json:"department_id,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	ClassID      string
	DepartmentID string
	Type         SubjectType
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// OfferedSubject exposes a department-level elective to a given year,
// teachable by any faculty in its approved set.
type OfferedSubject struct {
	ID           string         `db:"id" json:"id"`
	SubjectID    string         `db:"subject_id" json:"subject_id"`
	DepartmentID string         `db:"department_id" json:"department_id"`
	Year         int            `db:"year" json:"year"`
	Semester     int            `db:"semester" json:"semester"`
	FacultyIDs   pq.StringArray `db:"faculty_ids" json:"faculty_ids"`
	IsActive     bool           `db:"is_active" json:"is_active"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// OfferedSubjectDetail extends OfferedSubject with resolved subject fields.
type OfferedSubjectDetail struct {
	OfferedSubject
	SubjectName string      `db:"subject_name" json:"subject_name"`
	SubjectCode string      `db:"subject_code" json:"subject_code"`
	SubjectType SubjectType `db:"subject_type" json:"subject_type"`
}

// SubjectAssignment links a faculty to a subject for a class. A nil batch_id
// applies the assignment to all batches in the class (theory); a non-nil
// batch_id scopes it to one batch (practical).
type SubjectAssignment struct {
	ID        string    `db:"id" json:"id"`
	FacultyID string    `db:"faculty_id" json:"faculty_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	BatchID   *string   `db:"batch_id" json:"batch_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SubjectAssignmentDetail extends SubjectAssignment with resolved names.
type SubjectAssignmentDetail struct {
	SubjectAssignment
	SubjectName string      `db:"subject_name" json:"subject_name"`
	SubjectCode string      `db:"subject_code" json:"subject_code"`
	SubjectType SubjectType `db:"subject_type" json:"subject_type"`
	ClassName   string      `db:"class_name" json:"class_name"`
	FacultyName string      `db:"faculty_name" json:"faculty_name"`
}
