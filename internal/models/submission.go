package models

import "time"

// Submission type names form a fixed vocabulary referenced by name.
const (
	SubmissionTypeTA            = "TA"
	SubmissionTypeCIE           = "CIE"
	SubmissionTypeDefaulterWork = "Defaulter work"
)

// SubmissionType is one entry of the fixed submission-type vocabulary.
type SubmissionType struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// SubmissionStatus is the per-row completion state.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionCompleted SubmissionStatus = "completed"
)

// Submission is the per-(student, subject, type) tracking row. Rows are
// upserted by faculty marking actions and never deleted.
type Submission struct {
	StudentID        string           `db:"student_id" json:"student_id"`
	SubjectID        string           `db:"subject_id" json:"subject_id"`
	SubmissionTypeID string           `db:"submission_type_id" json:"submission_type_id"`
	TypeName         string           `db:"type_name" json:"type_name"`
	Status           SubmissionStatus `db:"status" json:"status"`
	MarkedBy         string           `db:"marked_by" json:"marked_by"`
	MarkedAt         time.Time        `db:"marked_at" json:"marked_at"`
}

// DefaulterSubmission is an append-only extra-work instruction record. The
// latest row per subject is the current assignment view.
type DefaulterSubmission struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	SubjectID      string           `db:"subject_id" json:"subject_id"`
	FacultyID      string           `db:"faculty_id" json:"faculty_id"`
	SubmissionText string           `db:"submission_text" json:"submission_text"`
	ReferenceLink  string           `db:"reference_link" json:"reference_link"`
	Skip           bool             `db:"skip" json:"skip"`
	Status         SubmissionStatus `db:"status" json:"status"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}
