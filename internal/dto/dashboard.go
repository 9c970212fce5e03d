package dto

import "github.com/campus-hq/academics-api/internal/models"

// SubjectCompletion is the per-subject completion verdict for one student.
type SubjectCompletion struct {
	SubjectID   string             `json:"subject_id"`
	SubjectName string             `json:"subject_name"`
	SubjectType models.SubjectType `json:"subject_type"`
	TADone      bool               `json:"ta_done"`
	CIEDone     bool               `json:"cie_done"`
	Complete    bool               `json:"complete"`
}

// StudentCompletion is the plain per-student view: complete subjects over
// assigned subjects.
type StudentCompletion struct {
	StudentID     string              `json:"student_id"`
	StudentName   string              `json:"student_name"`
	RollNo        int                 `json:"roll_no"`
	Subjects      []SubjectCompletion `json:"subjects"`
	CompleteCount int                 `json:"complete_count"`
	TotalSubjects int                 `json:"total_subjects"`
	Percent       int                 `json:"percent"`
}

// StudentDashboard is the student-facing view. Percent here uses the
// defaulter-weighted formula and is intentionally distinct from
// StudentCompletion.Percent.
type StudentDashboard struct {
	Student        models.Student           `json:"student"`
	Defaulter      bool                     `json:"defaulter"`
	Subjects       SubjectBuckets           `json:"subjects"`
	SelectionState models.SelectionState    `json:"selection_state"`
	Selection      *models.StudentSelection `json:"selection,omitempty"`
	Percent        int                      `json:"percent"`
	SlotsDone      int                      `json:"slots_done"`
	SlotsTotal     int                      `json:"slots_total"`
}

// FacultyRoster lists the reconciled students for one faculty/subject pair
// with their completion rows.
type FacultyRoster struct {
	SubjectID string              `json:"subject_id"`
	FacultyID string              `json:"faculty_id"`
	Students  []RosterStudent     `json:"students"`
	Rows      []StudentCompletion `json:"rows"`
}

// CompletionRollup is a class-, department-, or year-level aggregate: the
// share of students with every assigned subject complete.
type CompletionRollup struct {
	Scope            string `json:"scope"`
	ScopeID          string `json:"scope_id,omitempty"`
	ScopeName        string `json:"scope_name,omitempty"`
	Year             int    `json:"year,omitempty"`
	TotalStudents    int    `json:"total_students"`
	CompleteStudents int    `json:"complete_students"`
	Percent          int    `json:"percent"`
}

// DepartmentDashboard aggregates per-class rollups for a department.
type DepartmentDashboard struct {
	Department models.Department  `json:"department"`
	Overall    CompletionRollup   `json:"overall"`
	Classes    []CompletionRollup `json:"classes"`
	Years      []CompletionRollup `json:"years"`
}
