package models

import "time"

// DefaulterAttendanceThreshold is the attendance percentage below which a
// student is flagged as a defaulter unless explicitly overridden.
const DefaulterAttendanceThreshold = 75.0

// Student represents a learner registered in a class.
type Student struct {
	ID                string    `db:"id" json:"id"`
	ClassID           string    `db:"class_id" json:"class_id"`
	BatchID           *string   `db:"batch_id" json:"batch_id,omitempty"`
	RollNo            int       `db:"roll_no" json:"roll_no"`
	Name              string    `db:"name" json:"name"`
	HallTicketNo      string    `db:"hall_ticket_no" json:"hall_ticket_no"`
	AttendancePercent float64   `db:"attendance_percent" json:"attendance_percent"`
	Defaulter         bool      `db:"defaulter" json:"defaulter"`
	DefaulterOverride bool      `db:"defaulter_override" json:"defaulter_override"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// IsDefaulter applies the derived-flag rule: below-threshold attendance marks
// a defaulter unless the flag was explicitly overridden.
func (s Student) IsDefaulter() bool {
	if s.DefaulterOverride {
		return s.Defaulter
	}
	return s.AttendancePercent < DefaulterAttendanceThreshold
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	ClassID   string
	BatchID   string
	Defaulter *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ImportRecord is one parsed roster row handed over by the import
// collaborator. Parsing itself happens upstream.
type ImportRecord struct {
	RollNo            int     `json:"roll_no" validate:"required,min=1"`
	Name              string  `json:"name" validate:"required"`
	HallTicketNumber  string  `json:"hall_ticket_number" validate:"required"`
	AttendancePercent float64 `json:"attendance_percent" validate:"min=0,max=100"`
}

// ImportSummary reports the outcome of a roster import.
type ImportSummary struct {
	Imported     int      `json:"imported"`
	Skipped      int      `json:"skipped"`
	SkippedRolls []int    `json:"skipped_rolls,omitempty"`
	CreatedIDs   []string `json:"created_ids,omitempty"`
}
