package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campus-hq/academics-api/internal/dto"
	"github.com/campus-hq/academics-api/internal/models"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
)

type reconcileAssignmentStore interface {
	ListByFacultySubject(ctx context.Context, facultyID, subjectID string) ([]models.SubjectAssignment, error)
}

type reconcileSelectionStore interface {
	ListByFacultySubject(ctx context.Context, facultyID, subjectID string) ([]models.StudentSelection, error)
}

type reconcileStudentStore interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
	ListByBatch(ctx context.Context, batchID string) ([]models.Student, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

// ReconcileService resolves the effective student roster for a faculty and
// subject by folding the direct and self-selected assignment paths.
type ReconcileService struct {
	assignments reconcileAssignmentStore
	selections  reconcileSelectionStore
	students    reconcileStudentStore
	logger      *zap.Logger
}

// NewReconcileService constructs ReconcileService.
func NewReconcileService(assignments reconcileAssignmentStore, selections reconcileSelectionStore, students reconcileStudentStore, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{assignments: assignments, selections: selections, students: students, logger: logger}
}

// StudentsFor returns the reconciled roster for a faculty/subject pair.
// Direct assignments expand first (whole class, or one batch when scoped),
// then students whose locked-in elective choice names this faculty and
// subject. Duplicates keep their first-seen source tag.
func (s *ReconcileService) StudentsFor(ctx context.Context, facultyID, subjectID string) ([]dto.RosterStudent, error) {
	var roster []dto.RosterStudent
	seen := make(map[string]struct{})

	add := func(students []models.Student, source dto.AssignmentSource) {
		for _, student := range students {
			if _, ok := seen[student.ID]; ok {
				continue
			}
			seen[student.ID] = struct{}{}
			roster = append(roster, dto.RosterStudent{Student: student, Source: source})
		}
	}

	assignments, err := s.assignments.ListByFacultySubject(ctx, facultyID, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	for _, assignment := range assignments {
		var students []models.Student
		if assignment.BatchID != nil {
			students, err = s.students.ListByBatch(ctx, *assignment.BatchID)
		} else {
			students, err = s.students.ListByClass(ctx, assignment.ClassID)
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expand assignment")
		}
		add(students, dto.SourceDirect)
	}

	selections, err := s.selections.ListByFacultySubject(ctx, facultyID, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selections")
	}
	if len(selections) > 0 {
		ids := make([]string, 0, len(selections))
		for _, selection := range selections {
			if _, ok := seen[selection.StudentID]; ok {
				continue
			}
			ids = append(ids, selection.StudentID)
		}
		students, err := s.students.ListByIDs(ctx, ids)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selected students")
		}
		// Preserve the selection order, not the IN-clause result order.
		byID := make(map[string]models.Student, len(students))
		for _, student := range students {
			byID[student.ID] = student
		}
		for _, id := range ids {
			if student, ok := byID[id]; ok {
				add([]models.Student{student}, dto.SourceSelfSelected)
			}
		}
	}
	return roster, nil
}

// Teaches reports whether the roster for the pair contains the student.
func (s *ReconcileService) Teaches(ctx context.Context, facultyID, subjectID, studentID string) (bool, error) {
	roster, err := s.StudentsFor(ctx, facultyID, subjectID)
	if err != nil {
		return false, err
	}
	for _, entry := range roster {
		if entry.Student.ID == studentID {
			return true, nil
		}
	}
	return false, nil
}
