package models

import "time"

// ElectiveCategory names one of the student-selected subject slots.
type ElectiveCategory string

const (
	CategoryOE  ElectiveCategory = "OE"
	CategoryMDM ElectiveCategory = "MDM"
	CategoryPE  ElectiveCategory = "PE"
)

// CategoryOrder is the fixed reporting order for missing-category messages.
var CategoryOrder = []ElectiveCategory{CategoryOE, CategoryMDM, CategoryPE}

// SelectionState describes the elective choice lifecycle.
type SelectionState string

const (
	SelectionUnset    SelectionState = "UNSET"
	SelectionPartial  SelectionState = "PARTIAL"
	SelectionComplete SelectionState = "COMPLETE"
	SelectionLocked   SelectionState = "LOCKED"
)

// StudentSelection stores a student's elective choices. At most one row per
// student; each category pair is independently overwritable until locked.
type StudentSelection struct {
	StudentID        string    `db:"student_id" json:"student_id"`
	MDMID            *string   `db:"mdm_id" json:"mdm_id,omitempty"`
	MDMFacultyID     *string   `db:"mdm_faculty_id" json:"mdm_faculty_id,omitempty"`
	OEID             *string   `db:"oe_id" json:"oe_id,omitempty"`
	OEFacultyID      *string   `db:"oe_faculty_id" json:"oe_faculty_id,omitempty"`
	PEID             *string   `db:"pe_id" json:"pe_id,omitempty"`
	PEFacultyID      *string   `db:"pe_faculty_id" json:"pe_faculty_id,omitempty"`
	SelectionsLocked bool      `db:"selections_locked" json:"selections_locked"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Category returns the subject/faculty pair for the given category.
func (s *StudentSelection) Category(cat ElectiveCategory) (subjectID, facultyID *string) {
	switch cat {
	case CategoryMDM:
		return s.MDMID, s.MDMFacultyID
	case CategoryOE:
		return s.OEID, s.OEFacultyID
	case CategoryPE:
		return s.PEID, s.PEFacultyID
	}
	return nil, nil
}

// SetCategory overwrites the subject/faculty pair for the given category.
func (s *StudentSelection) SetCategory(cat ElectiveCategory, subjectID, facultyID string) {
	switch cat {
	case CategoryMDM:
		s.MDMID, s.MDMFacultyID = &subjectID, &facultyID
	case CategoryOE:
		s.OEID, s.OEFacultyID = &subjectID, &facultyID
	case CategoryPE:
		s.PEID, s.PEFacultyID = &subjectID, &facultyID
	}
}

// Missing returns the required categories without a selection, in the fixed
// reporting order.
func (s *StudentSelection) Missing(required []ElectiveCategory) []ElectiveCategory {
	requiredSet := make(map[ElectiveCategory]struct{}, len(required))
	for _, cat := range required {
		requiredSet[cat] = struct{}{}
	}
	var missing []ElectiveCategory
	for _, cat := range CategoryOrder {
		if _, ok := requiredSet[cat]; !ok {
			continue
		}
		if subjectID, _ := s.Category(cat); subjectID == nil {
			missing = append(missing, cat)
		}
	}
	return missing
}

// State derives the lifecycle state against the required category set.
func (s *StudentSelection) State(required []ElectiveCategory) SelectionState {
	if s == nil {
		return SelectionUnset
	}
	if s.SelectionsLocked {
		return SelectionLocked
	}
	selected := 0
	for _, cat := range CategoryOrder {
		if subjectID, _ := s.Category(cat); subjectID != nil {
			selected++
		}
	}
	if selected == 0 {
		return SelectionUnset
	}
	if len(s.Missing(required)) == 0 {
		return SelectionComplete
	}
	return SelectionPartial
}
