package dto

import "github.com/campus-hq/academics-api/internal/models"

// AssignmentSource tags which mechanism linked a subject (or student) to an
// actor. Merge order is Direct, then Offered, then SelfSelected.
type AssignmentSource string

const (
	SourceDirect       AssignmentSource = "direct"
	SourceOffered      AssignmentSource = "offered"
	SourceSelfSelected AssignmentSource = "self_selected"
)

// CatalogEntry is one subject visible to an actor, tagged with the source
// that first contributed it.
type CatalogEntry struct {
	Subject models.Subject   `json:"subject"`
	Source  AssignmentSource `json:"source"`
	// FacultyID is set when the entry came with a teaching link (direct
	// assignment or a student's chosen faculty).
	FacultyID *string `json:"faculty_id,omitempty"`
	BatchID   *string `json:"batch_id,omitempty"`
}

// SubjectBuckets groups an actor's visible subjects by category.
type SubjectBuckets struct {
	Theory    []CatalogEntry `json:"theory"`
	Practical []CatalogEntry `json:"practical"`
	MDM       []CatalogEntry `json:"mdm"`
	OE        []CatalogEntry `json:"oe"`
	PE        []CatalogEntry `json:"pe"`
}

// FacultyOption is one selectable faculty for an offered elective. Unresolvable
// ids keep their slot with a sentinel name so the list stays aligned with
// OfferedSubject.faculty_ids.
type FacultyOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ElectiveOption pairs an offered subject with its selectable faculty.
type ElectiveOption struct {
	Subject        models.Subject  `json:"subject"`
	OfferedID      string          `json:"offered_id"`
	Semester       int             `json:"semester"`
	FacultyOptions []FacultyOption `json:"faculty_options"`
}

// ElectiveOfferings is the per-category view of selectable electives for a
// class year and department.
type ElectiveOfferings struct {
	MDM []ElectiveOption `json:"mdm"`
	OE  []ElectiveOption `json:"oe"`
	PE  []ElectiveOption `json:"pe"`
}

// RosterStudent is one reconciled student for a faculty/subject pair.
type RosterStudent struct {
	Student models.Student   `json:"student"`
	Source  AssignmentSource `json:"source"`
}
