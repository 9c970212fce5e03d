package service

import (
	"context"
	"database/sql"
	"strings"

	"go.uber.org/zap"

	"github.com/campus-hq/academics-api/internal/dto"
	"github.com/campus-hq/academics-api/internal/models"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
)

// subjectBucket is the normalised category a subject lands in.
type subjectBucket int

const (
	bucketTheory subjectBucket = iota
	bucketPractical
	bucketMDM
	bucketOE
	bucketPE
)

// classifySubject normalises a subject into its bucket. The type field wins;
// a name-substring fallback covers rows whose type was mis-tagged upstream.
// This dual check is a tolerance for dirty data and is deliberately the only
// place it lives, so it can be dropped once the data is cleaned. Legacy rows
// that are neither theory nor practical default to theory.
func classifySubject(t models.SubjectType, name string) subjectBucket {
	switch t {
	case models.SubjectPractical:
		return bucketPractical
	case models.SubjectMDM:
		return bucketMDM
	case models.SubjectOE:
		return bucketOE
	case models.SubjectPE:
		return bucketPE
	case models.SubjectTheory:
		return bucketTheory
	}
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "multidisciplinary"):
		return bucketMDM
	case strings.Contains(lower, "open elective"):
		return bucketOE
	case strings.Contains(lower, "professional elective"):
		return bucketPE
	}
	return bucketTheory
}

type catalogAssignmentStore interface {
	ListByFaculty(ctx context.Context, facultyID string) ([]models.SubjectAssignmentDetail, error)
	ListByClass(ctx context.Context, classID string) ([]models.SubjectAssignmentDetail, error)
}

type catalogOfferingStore interface {
	ListActiveForYear(ctx context.Context, year int, departmentID string) ([]models.OfferedSubjectDetail, error)
	ListByFaculty(ctx context.Context, facultyID string) ([]models.OfferedSubjectDetail, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]models.OfferedSubjectDetail, error)
}

type catalogSelectionStore interface {
	FindByStudent(ctx context.Context, studentID string) (*models.StudentSelection, error)
}

type catalogSubjectStore interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Subject, error)
	ListByDepartmentClasses(ctx context.Context, departmentID string) ([]models.Subject, error)
}

type catalogStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type catalogClassStore interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// CatalogService resolves the set of subjects visible to an actor by merging
// the three assignment sources.
type CatalogService struct {
	assignments catalogAssignmentStore
	offerings   catalogOfferingStore
	selections  catalogSelectionStore
	subjects    catalogSubjectStore
	students    catalogStudentStore
	classes     catalogClassStore
	logger      *zap.Logger
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(assignments catalogAssignmentStore, offerings catalogOfferingStore, selections catalogSelectionStore, subjects catalogSubjectStore, students catalogStudentStore, classes catalogClassStore, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		assignments: assignments,
		offerings:   offerings,
		selections:  selections,
		subjects:    subjects,
		students:    students,
		classes:     classes,
		logger:      logger,
	}
}

// SubjectsFor returns the actor's visible subjects grouped by bucket. Merge
// order is direct assignments, then offered electives, then selection-derived
// subjects; on duplicate subject ids the first writer wins.
func (s *CatalogService) SubjectsFor(ctx context.Context, actor models.Actor) (*dto.SubjectBuckets, error) {
	var entries []dto.CatalogEntry
	var err error

	switch actor.Role {
	case models.RoleStudent:
		entries, err = s.studentEntries(ctx, actor)
	case models.RoleFaculty, models.RoleClassTeacher:
		entries, err = s.facultyEntries(ctx, actor)
	case models.RoleHOD, models.RoleDirector:
		entries, err = s.departmentEntries(ctx, actor)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown actor role")
	}
	if err != nil {
		return nil, err
	}

	merged := mergeFirstWriteWins(entries)

	buckets := &dto.SubjectBuckets{}
	for _, entry := range merged {
		switch classifySubject(entry.Subject.Type, entry.Subject.Name) {
		case bucketPractical:
			buckets.Practical = append(buckets.Practical, entry)
		case bucketMDM:
			buckets.MDM = append(buckets.MDM, entry)
		case bucketOE:
			buckets.OE = append(buckets.OE, entry)
		case bucketPE:
			buckets.PE = append(buckets.PE, entry)
		default:
			buckets.Theory = append(buckets.Theory, entry)
		}
	}
	return buckets, nil
}

// mergeFirstWriteWins de-duplicates by subject id keeping the earliest entry.
func mergeFirstWriteWins(entries []dto.CatalogEntry) []dto.CatalogEntry {
	seen := make(map[string]struct{}, len(entries))
	merged := make([]dto.CatalogEntry, 0, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.Subject.ID]; ok {
			continue
		}
		seen[entry.Subject.ID] = struct{}{}
		merged = append(merged, entry)
	}
	return merged
}

func (s *CatalogService) studentEntries(ctx context.Context, actor models.Actor) ([]dto.CatalogEntry, error) {
	if actor.ClassID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student has no class")
	}
	student, err := s.students.FindByID(ctx, actor.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	class, err := s.classes.FindByID(ctx, student.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	var entries []dto.CatalogEntry

	assignments, err := s.assignments.ListByClass(ctx, student.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class assignments")
	}
	for _, a := range assignments {
		if a.BatchID != nil && (student.BatchID == nil || *a.BatchID != *student.BatchID) {
			continue
		}
		facultyID := a.FacultyID
		entries = append(entries, dto.CatalogEntry{
			Subject:   assignmentSubject(a),
			Source:    dto.SourceDirect,
			FacultyID: &facultyID,
			BatchID:   a.BatchID,
		})
	}

	offerings, err := s.offerings.ListActiveForYear(ctx, class.Year, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offerings")
	}
	for _, o := range offerings {
		if classifySubject(o.SubjectType, o.SubjectName) == bucketPE && o.DepartmentID != class.DepartmentID {
			continue
		}
		entries = append(entries, dto.CatalogEntry{Subject: offeringSubject(o), Source: dto.SourceOffered})
	}

	selectionEntries, err := s.selectionEntries(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	entries = append(entries, selectionEntries...)
	return entries, nil
}

func (s *CatalogService) facultyEntries(ctx context.Context, actor models.Actor) ([]dto.CatalogEntry, error) {
	var entries []dto.CatalogEntry

	assignments, err := s.assignments.ListByFaculty(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	for _, a := range assignments {
		facultyID := a.FacultyID
		entries = append(entries, dto.CatalogEntry{
			Subject:   assignmentSubject(a),
			Source:    dto.SourceDirect,
			FacultyID: &facultyID,
			BatchID:   a.BatchID,
		})
	}

	offerings, err := s.offerings.ListByFaculty(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offerings")
	}
	for _, o := range offerings {
		entries = append(entries, dto.CatalogEntry{Subject: offeringSubject(o), Source: dto.SourceOffered})
	}
	return entries, nil
}

func (s *CatalogService) departmentEntries(ctx context.Context, actor models.Actor) ([]dto.CatalogEntry, error) {
	if actor.DepartmentID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "actor has no department")
	}
	var entries []dto.CatalogEntry

	subjects, err := s.subjects.ListByDepartmentClasses(ctx, *actor.DepartmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department subjects")
	}
	for _, subject := range subjects {
		entries = append(entries, dto.CatalogEntry{Subject: subject, Source: dto.SourceDirect})
	}

	offerings, err := s.offerings.ListByDepartment(ctx, *actor.DepartmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offerings")
	}
	for _, o := range offerings {
		entries = append(entries, dto.CatalogEntry{Subject: offeringSubject(o), Source: dto.SourceOffered})
	}
	return entries, nil
}

func (s *CatalogService) selectionEntries(ctx context.Context, studentID string) ([]dto.CatalogEntry, error) {
	selection, err := s.selections.FindByStudent(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selection")
	}

	type pick struct {
		subjectID string
		facultyID *string
	}
	var picks []pick
	for _, cat := range models.CategoryOrder {
		if subjectID, facultyID := selection.Category(cat); subjectID != nil {
			picks = append(picks, pick{subjectID: *subjectID, facultyID: facultyID})
		}
	}
	if len(picks) == 0 {
		return nil, nil
	}

	ids := make([]string, len(picks))
	for i, p := range picks {
		ids[i] = p.subjectID
	}
	subjects, err := s.subjects.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selected subjects")
	}
	byID := make(map[string]models.Subject, len(subjects))
	for _, subject := range subjects {
		byID[subject.ID] = subject
	}

	var entries []dto.CatalogEntry
	for _, p := range picks {
		subject, ok := byID[p.subjectID]
		if !ok {
			continue
		}
		entries = append(entries, dto.CatalogEntry{Subject: subject, Source: dto.SourceSelfSelected, FacultyID: p.facultyID})
	}
	return entries, nil
}

func assignmentSubject(a models.SubjectAssignmentDetail) models.Subject {
	classID := a.ClassID
	return models.Subject{
		ID:      a.SubjectID,
		Name:    a.SubjectName,
		Code:    a.SubjectCode,
		Type:    a.SubjectType,
		ClassID: &classID,
	}
}

func offeringSubject(o models.OfferedSubjectDetail) models.Subject {
	departmentID := o.DepartmentID
	return models.Subject{
		ID:           o.SubjectID,
		Name:         o.SubjectName,
		Code:         o.SubjectCode,
		Type:         o.SubjectType,
		DepartmentID: &departmentID,
	}
}
