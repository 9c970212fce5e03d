package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-hq/academics-api/internal/models"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
)

// SelectRequest is a single-category elective choice.
type SelectRequest struct {
	Category  models.ElectiveCategory `json:"category" validate:"required,oneof=OE MDM PE"`
	SubjectID string                  `json:"subject_id" validate:"required,uuid"`
	FacultyID string                  `json:"faculty_id" validate:"required,uuid"`
}

type selectionStore interface {
	FindByStudent(ctx context.Context, studentID string) (*models.StudentSelection, error)
	UpsertCategory(ctx context.Context, studentID string, cat models.ElectiveCategory, subjectID, facultyID string) error
	SetLocked(ctx context.Context, studentID string, locked bool) error
}

type selectionAssignmentChecker interface {
	Exists(ctx context.Context, facultyID, subjectID string) (bool, error)
}

type selectionOfferedChecker interface {
	FacultyTeaches(ctx context.Context, facultyID, subjectID string) (bool, error)
}

type selectionStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type selectionClassStore interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// SelectionService drives the elective selection lifecycle: category picks
// stay overwritable until a lock, a lock requires the year's full category
// set, and only staff can unlock.
type SelectionService struct {
	selections  selectionStore
	assignments selectionAssignmentChecker
	offerings   selectionOfferedChecker
	students    selectionStudentStore
	classes     selectionClassStore
	metrics     *MetricsService
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewSelectionService constructs SelectionService. metrics may be nil.
func NewSelectionService(selections selectionStore, assignments selectionAssignmentChecker, offerings selectionOfferedChecker, students selectionStudentStore, classes selectionClassStore, metrics *MetricsService, logger *zap.Logger) *SelectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectionService{
		selections:  selections,
		assignments: assignments,
		offerings:   offerings,
		students:    students,
		classes:     classes,
		metrics:     metrics,
		validate:    validator.New(),
		logger:      logger,
	}
}

// Select records one category choice for the student. The faculty must teach
// the subject through a direct assignment or an active offering, the category
// must be visible for the student's year, and the student's selections must
// not be locked.
func (s *SelectionService) Select(ctx context.Context, studentID string, req SelectRequest) (*models.StudentSelection, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	student, class, err := s.loadStudentClass(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !categoryVisible(class.Year, req.Category) {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("category %s is not available for year %d", req.Category, class.Year))
	}

	selection, err := s.selections.FindByStudent(ctx, studentID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selection")
	}
	if selection != nil && selection.SelectionsLocked {
		return nil, appErrors.ErrSelectionLocked
	}

	teaches, err := s.facultyTeaches(ctx, req.FacultyID, req.SubjectID)
	if err != nil {
		return nil, err
	}
	if !teaches {
		return nil, appErrors.Clone(appErrors.ErrValidation, "selected faculty does not teach this subject")
	}

	if err := s.selections.UpsertCategory(ctx, student.ID, req.Category, req.SubjectID, req.FacultyID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save selection")
	}

	selection, err = s.selections.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload selection")
	}
	s.logger.Info("elective selected",
		zap.String("student_id", studentID),
		zap.String("category", string(req.Category)),
		zap.String("subject_id", req.SubjectID))
	return selection, nil
}

// Lock finalises the student's selections. Every category required for the
// student's year must be chosen; otherwise the missing categories are named
// in fixed order and nothing changes.
func (s *SelectionService) Lock(ctx context.Context, studentID string) error {
	_, class, err := s.loadStudentClass(ctx, studentID)
	if err != nil {
		return err
	}
	required := RequiredCategories(class.Year)
	if len(required) == 0 {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("year %d has no elective selections to lock", class.Year))
	}

	selection, err := s.selections.FindByStudent(ctx, studentID)
	if err != nil && err != sql.ErrNoRows {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selection")
	}
	if selection == nil {
		selection = &models.StudentSelection{StudentID: studentID}
	}
	if selection.SelectionsLocked {
		return appErrors.ErrSelectionLocked
	}
	if missing := selection.Missing(required); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, cat := range missing {
			names[i] = string(cat)
		}
		return appErrors.IncompleteSelection(names)
	}

	if err := s.selections.SetLocked(ctx, studentID, true); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock selections")
	}
	s.metrics.RecordSelectionLock()
	s.logger.Info("elective selections locked", zap.String("student_id", studentID))
	return nil
}

// Unlock reopens a student's selections. Only the teaching staff that
// handles the student may override a lock.
func (s *SelectionService) Unlock(ctx context.Context, actor models.Actor, studentID string) error {
	switch actor.Role {
	case models.RoleClassTeacher, models.RoleFaculty:
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "only class teachers and faculty can unlock selections")
	}

	selection, err := s.selections.FindByStudent(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student has no selections")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selection")
	}
	if !selection.SelectionsLocked {
		return nil
	}

	if err := s.selections.SetLocked(ctx, studentID, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unlock selections")
	}
	s.logger.Info("elective selections unlocked",
		zap.String("student_id", studentID),
		zap.String("unlocked_by", actor.ID))
	return nil
}

// Status returns the selection row (nil when unset) and the derived state.
func (s *SelectionService) Status(ctx context.Context, studentID string) (*models.StudentSelection, models.SelectionState, error) {
	_, class, err := s.loadStudentClass(ctx, studentID)
	if err != nil {
		return nil, models.SelectionUnset, err
	}
	selection, err := s.selections.FindByStudent(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.SelectionUnset, nil
		}
		return nil, models.SelectionUnset, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selection")
	}
	return selection, selection.State(RequiredCategories(class.Year)), nil
}

// facultyTeaches verifies the teaching link. Direct assignments are checked
// first, then the offered-subject faculty sets.
func (s *SelectionService) facultyTeaches(ctx context.Context, facultyID, subjectID string) (bool, error) {
	assigned, err := s.assignments.Exists(ctx, facultyID, subjectID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if assigned {
		return true, nil
	}
	offered, err := s.offerings.FacultyTeaches(ctx, facultyID, subjectID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check offering")
	}
	return offered, nil
}

func (s *SelectionService) loadStudentClass(ctx context.Context, studentID string) (*models.Student, *models.Class, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	class, err := s.classes.FindByID(ctx, student.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return student, class, nil
}
